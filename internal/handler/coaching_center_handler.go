package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

// CoachingCenterHandler serves the public discovery endpoints.
type CoachingCenterHandler struct {
	service   service.CoachingCenterService
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewCoachingCenterHandler constructs the handler.
func NewCoachingCenterHandler(service service.CoachingCenterService, validator *validation.Validator, logger zerolog.Logger) *CoachingCenterHandler {
	return &CoachingCenterHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "coaching_center_handler").Logger(),
	}
}

// Register attaches discovery routes.
func (h *CoachingCenterHandler) Register(router fiber.Router) {
	router.Get("", h.search)
	router.Get("/:slug", h.get)
}

func (h *CoachingCenterHandler) search(c *fiber.Ctx) error {
	var req dto.CoachingCenterSearchRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.Search(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	c.Set("X-Cache", cacheHeader(result.CacheHit))
	return utils.OK(c, result.Items, "coaching centers retrieved", result.Pagination)
}

func (h *CoachingCenterHandler) get(c *fiber.Ctx) error {
	center, err := h.service.Get(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "coaching center retrieved", center)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
