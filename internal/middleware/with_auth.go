package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coachhub-api/internal/utils"
)

// Audiences accepted by WithAuth.
const (
	AudienceAny     = "any"
	AudienceStudent = "student"
	AudienceStaff   = "staff"
)

// WithAuth wraps a single handler with an audience check. Staff covers teachers and admins.
func WithAuth(handler fiber.Handler, audience string) fiber.Handler {
	audience = strings.ToLower(strings.TrimSpace(audience))
	if audience == "" {
		audience = AudienceAny
	}

	return func(c *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		switch audience {
		case AudienceAny:
		case AudienceStudent:
			if principal.Role != RoleStudent {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		case AudienceStaff:
			if !principal.IsStaff() {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		default:
			if principal.Role != audience {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return handler(c)
	}
}
