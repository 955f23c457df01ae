package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerCorrelationID = "X-Correlation-ID"

type correlationIDKey struct{}

// CorrelationID makes every request carry a correlation id. The id is echoed in the response
// header, stored in the request locals and attached to the user context together with a
// request-scoped logger so services can log with zerolog.Ctx.
func CorrelationID(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(headerCorrelationID))
		if id == "" {
			id = strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals("correlation_id", id)
		c.Set(headerCorrelationID, id)

		requestLogger := logger.With().Str("correlation_id", id).Logger()
		ctx := context.WithValue(c.UserContext(), correlationIDKey{}, id)
		c.SetUserContext(requestLogger.WithContext(ctx))

		return c.Next()
	}
}

// CorrelationIDFromContext extracts the correlation identifier from context, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if id, ok := c.Locals("correlation_id").(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}
