package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/noah-isme/coachhub-api/internal/validation"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success          bool                    `json:"success"`
	Data             interface{}             `json:"data,omitempty"`
	Message          string                  `json:"message"`
	Error            string                  `json:"error,omitempty"`
	ValidationErrors []validation.FieldError `json:"validation_errors,omitempty"`
	Meta             interface{}             `json:"meta,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// OK sends a success payload carrying pagination or other metadata.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
		Meta:    meta,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Error:   ErrorCode(status),
	})
}

// SendValidationErrors reports field level failures with 422.
func SendValidationErrors(c *fiber.Ctx, fields []validation.FieldError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(APIResponse{
		Success:          false,
		Message:          "validation failed",
		Error:            ErrorCode(fiber.StatusUnprocessableEntity),
		ValidationErrors: fields,
	})
}

// ErrorCode turns an HTTP status into a snake_case code such as "not_found".
func ErrorCode(status int) string {
	text := strings.ToLower(fiberutils.StatusMessage(status))
	if text == "" {
		return "error"
	}
	return strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text)
}
