package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

// ActivityHandler exposes the audit trail to staff.
type ActivityHandler struct {
	service   service.ActivityService
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, validator *validation.Validator, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity endpoints.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	var req dto.ActivityLogListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.List(c.UserContext(), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.OK(c, result.Items, "activity logs retrieved", result.Pagination)
}
