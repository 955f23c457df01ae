package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

// AttachmentHandler handles submission file uploads.
type AttachmentHandler struct {
	service   service.AttachmentService
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewAttachmentHandler constructs an attachment handler.
func NewAttachmentHandler(service service.AttachmentService, validator *validation.Validator, logger zerolog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "attachment_handler").Logger(),
	}
}

// Register wires the student upload routes.
func (h *AttachmentHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
	router.Delete("/:id", h.delete)
}

// SignedURL issues a retrieval link for the owner or staff.
func (h *AttachmentHandler) SignedURL(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.SignedURL(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "file url issued", result)
}

func (h *AttachmentHandler) upload(c *fiber.Ctx) error {
	assignmentID, err := parseFormUint(c, "assignment_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Upload(c.UserContext(), assignmentID, currentUserID(c), file)
	if err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload successful", result)
}

func (h *AttachmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, h.logger, h.validator, err)
	}

	return utils.SendSuccess(c, "attachment deleted", fiber.Map{"id": id})
}
