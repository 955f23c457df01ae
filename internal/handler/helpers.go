package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/middleware"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/utils"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, errors.New("missing " + key)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseFormUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.FormValue(key))
	if value == "" {
		return 0, errors.New(key + " is required")
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	principal, _ := middleware.CurrentPrincipal(c)
	return service.ActivityActor{ID: principal.ID, Role: principal.Role}
}

func currentUserID(c *fiber.Ctx) uint {
	principal, _ := middleware.CurrentPrincipal(c)
	return principal.ID
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

type errorStatus struct {
	target error
	status int
}

var domainErrorStatuses = []errorStatus{
	{service.ErrAssignmentNotFound, fiber.StatusNotFound},
	{service.ErrSubmissionNotFound, fiber.StatusNotFound},
	{service.ErrFileNotFound, fiber.StatusNotFound},
	{service.ErrCoachingCenterNotFound, fiber.StatusNotFound},

	{service.ErrAssignmentForbidden, fiber.StatusForbidden},
	{service.ErrSubmissionForbidden, fiber.StatusForbidden},
	{service.ErrFileForbidden, fiber.StatusForbidden},
	{service.ErrNotEnrolled, fiber.StatusForbidden},

	{service.ErrFinalSubmissionExists, fiber.StatusConflict},
	{service.ErrDraftConflict, fiber.StatusConflict},
	{service.ErrRegradeNotAllowed, fiber.StatusConflict},
	{service.ErrNotFinal, fiber.StatusConflict},
	{service.ErrNotGraded, fiber.StatusConflict},
	{service.ErrFileFinalized, fiber.StatusConflict},
	{lifecycle.ErrNotPublished, fiber.StatusConflict},
	{lifecycle.ErrNotVisible, fiber.StatusConflict},
	{lifecycle.ErrSubmissionClosed, fiber.StatusConflict},
	{lifecycle.ErrLateNotAllowed, fiber.StatusConflict},
	{lifecycle.ErrMaxSubmissionsReached, fiber.StatusConflict},
	{lifecycle.ErrInvalidTransition, fiber.StatusConflict},
	{lifecycle.ErrNotDraft, fiber.StatusConflict},
	{lifecycle.ErrClosedImmutable, fiber.StatusConflict},

	{service.ErrScoreExceedsMax, fiber.StatusBadRequest},
	{service.ErrInvalidRubric, fiber.StatusBadRequest},
	{service.ErrInvalidRubricScore, fiber.StatusBadRequest},
	{service.ErrInvalidDate, fiber.StatusBadRequest},
	{lifecycle.ErrInvalidSchedule, fiber.StatusBadRequest},
	{service.ErrClassMismatch, fiber.StatusBadRequest},
	{service.ErrTextRequired, fiber.StatusBadRequest},
	{service.ErrFileRequired, fiber.StatusBadRequest},
	{service.ErrRegradeReasonEmpty, fiber.StatusBadRequest},
	{service.ErrEmptyGradeUpdate, fiber.StatusBadRequest},
	{service.ErrUploadNotAccepted, fiber.StatusBadRequest},
	{service.ErrUploadExtensionNotAllowed, fiber.StatusBadRequest},
	{service.ErrUploadScanFailed, fiber.StatusBadRequest},

	{service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
	{service.ErrUploadTypeNotAllowed, fiber.StatusUnsupportedMediaType},
	{service.ErrStorageUnavailable, fiber.StatusServiceUnavailable},
}

// respondError writes the error envelope for err. Validation failures become 422 with
// field messages, known domain errors keep their message, anything else is logged and
// reported as 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, v *validation.Validator, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.SendValidationErrors(c, v.Translate(err))
	}

	for _, candidate := range domainErrorStatuses {
		if errors.Is(err, candidate.target) {
			return utils.SendError(c, candidate.status, err.Error())
		}
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
