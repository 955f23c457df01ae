package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

// SubmissionHandler exposes the student side of the submission lifecycle.
type SubmissionHandler struct {
	service   service.SubmissionService
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service service.SubmissionService, validator *validation.Validator, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the student routes to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("/assignments", h.listAssignments)
	router.Get("/assignments/:id/submissions", h.listAttempts)
	router.Get("/assignments/:id/eligibility", h.eligibility)
	router.Post("/submissions", h.submit)
	router.Put("/submissions/draft", h.saveDraft)
	router.Post("/submissions/:id/regrade", h.requestRegrade)
}

func (h *SubmissionHandler) listAssignments(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	views, err := h.service.ListForStudent(c.UserContext(), currentUserID(c), classID)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", views)
}

func (h *SubmissionHandler) listAttempts(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.service.ListAttempts(c.UserContext(), assignmentID, currentUserID(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", attempts)
}

func (h *SubmissionHandler) eligibility(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Eligibility(c.UserContext(), assignmentID, currentUserID(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "eligibility checked", result)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	return h.save(c, true)
}

func (h *SubmissionHandler) saveDraft(c *fiber.Ctx) error {
	return h.save(c, false)
}

func (h *SubmissionHandler) save(c *fiber.Ctx, final bool) error {
	var payload dto.SubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.StudentID = currentUserID(c)
	payload.IsFinal = final

	submission, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	if !final {
		return utils.SendSuccess(c, "draft saved", submission)
	}
	requestLogger(h.logger, c).Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", submission.AssignmentID).
		Int("attempt", submission.AttemptNumber).
		Bool("late", submission.IsLate).
		Msg("submission finalized")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission received", submission)
}

func (h *SubmissionHandler) requestRegrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RegradeRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.RequestRegrade(c.UserContext(), id, currentUserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "regrade requested", submission)
}
