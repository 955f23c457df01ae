package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coachhub-api/internal/config"
	"github.com/noah-isme/coachhub-api/internal/handler"
	"github.com/noah-isme/coachhub-api/internal/middleware"
	"github.com/noah-isme/coachhub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler     *handler.AssignmentHandler
	SubmissionHandler     *handler.SubmissionHandler
	GradingHandler        *handler.GradingHandler
	AttachmentHandler     *handler.AttachmentHandler
	CoachingCenterHandler *handler.CoachingCenterHandler
	ActivityHandler       *handler.ActivityHandler
	HealthProbes          map[string]handler.Probe
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public discovery
	if deps.CoachingCenterHandler != nil {
		centers := api.Group("/coaching-centers", middleware.RateLimit("coaching_centers", 60, time.Minute))
		deps.CoachingCenterHandler.Register(centers)
	}

	// Student lifecycle
	student := api.Group("/student", jwtMiddleware, middleware.RequireRole(middleware.RoleStudent))
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(student)
	}
	if deps.AttachmentHandler != nil {
		attachments := student.Group("/attachments", middleware.RateLimit("attachments", 20, time.Minute))
		deps.AttachmentHandler.Register(attachments)

		api.Get("/attachments/:id/url", jwtMiddleware, middleware.WithAuth(deps.AttachmentHandler.SignedURL, middleware.AudienceAny))
	}

	// Teacher and admin
	teacher := api.Group("/teacher", jwtMiddleware, middleware.RequireRole(middleware.RoleTeacher, middleware.RoleAdmin))
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(teacher.Group("/assignments"))
	}
	if deps.GradingHandler != nil {
		grading := teacher.Group("/submissions", middleware.RateLimit("grading", 120, time.Minute))
		deps.GradingHandler.Register(grading)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(teacher.Group("/activity-logs"))
	}
}
