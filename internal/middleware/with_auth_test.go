package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/middleware"
)

func appWithPrincipal(principal *middleware.Principal, audience string) *fiber.App {
	app := fiber.New()
	if principal != nil {
		app.Use(func(c *fiber.Ctx) error {
			middleware.SetPrincipal(c, *principal)
			return c.Next()
		})
	}
	app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}, audience))
	return app
}

func TestWithAuthStudentAudience(t *testing.T) {
	app := appWithPrincipal(&middleware.Principal{ID: 10, Role: "Student"}, middleware.AudienceStudent)
	require.Equal(t, fiber.StatusNoContent, perform(t, app).StatusCode)

	app = appWithPrincipal(&middleware.Principal{ID: 10, Role: "guest"}, middleware.AudienceStudent)
	require.Equal(t, fiber.StatusForbidden, perform(t, app).StatusCode)
}

func TestWithAuthStaffAllowsTeacherAndAdmin(t *testing.T) {
	for _, role := range []string{middleware.RoleTeacher, middleware.RoleAdmin} {
		app := appWithPrincipal(&middleware.Principal{ID: 1, Role: role}, middleware.AudienceStaff)
		require.Equal(t, fiber.StatusNoContent, perform(t, app).StatusCode, role)
	}

	app := appWithPrincipal(&middleware.Principal{ID: 2, Role: middleware.RoleStudent}, middleware.AudienceStaff)
	require.Equal(t, fiber.StatusForbidden, perform(t, app).StatusCode)
}

func TestWithAuthRequiresPrincipal(t *testing.T) {
	app := appWithPrincipal(nil, middleware.AudienceAny)
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app).StatusCode)
}

func perform(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return resp
}
