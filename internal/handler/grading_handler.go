package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

// GradingHandler wires the teacher grading queue and grading endpoints.
type GradingHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	validator   *validation.Validator
	logger      zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(submissions service.SubmissionService, grading service.GradingService, validator *validation.Validator, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		submissions: submissions,
		grading:     grading,
		validator:   validator,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/grade", h.grade)
	router.Patch("/:id/grade", h.updateGrade)
}

func (h *GradingHandler) list(c *fiber.Ctx) error {
	var req dto.SubmissionListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.submissions.ListForAssignment(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.OK(c, result.Items, "submissions retrieved", result.Pagination)
}

func (h *GradingHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.Grade(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) updateGrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.UpdateGrade(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "grade updated", submission)
}
