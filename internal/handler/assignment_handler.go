package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

// AssignmentHandler wires the teacher assignment routes.
type AssignmentHandler struct {
	service    service.AssignmentService
	statistics service.StatisticsService
	validator  *validation.Validator
	logger     zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, statistics service.StatisticsService, validator *validation.Validator, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:    service,
		statistics: statistics,
		validator:  validator,
		logger:     logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/publish", h.publish)
	router.Post("/:id/close", h.close)
	router.Get("/:id/statistics", h.stats)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	var req dto.AssignmentListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.List(c.UserContext(), req, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.OK(c, result.Items, "assignments retrieved", result.Pagination)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Update(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}

func (h *AssignmentHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Publish(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignment published", assignment)
}

func (h *AssignmentHandler) close(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Close(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignment closed", assignment)
}

func (h *AssignmentHandler) stats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	statistics, err := h.statistics.AssignmentStatistics(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignment statistics retrieved", statistics)
}
