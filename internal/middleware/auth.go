package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Roles carried in access tokens.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   uint
	Role string
}

// IsStaff reports whether the caller grades and manages assignments.
func (p Principal) IsStaff() bool {
	return p.Role == RoleTeacher || p.Role == RoleAdmin
}

// CurrentPrincipal returns the caller stored by JWTProtected.
func CurrentPrincipal(c *fiber.Ctx) (Principal, bool) {
	id, ok := c.Locals(localUserID).(uint)
	if !ok || id == 0 {
		return Principal{}, false
	}
	return Principal{ID: id, Role: normalizeRoleValue(c.Locals(localUserRole))}, true
}

// SetPrincipal binds a caller to the request.
func SetPrincipal(c *fiber.Ctx, principal Principal) {
	c.Locals(localUserID, principal.ID)
	c.Locals(localUserRole, strings.ToLower(strings.TrimSpace(principal.Role)))
}
