package handlers

import (
	"errors"
	"fmt"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a domain error kind to the HTTP status returned for it.
func statusFor(err error) int {
	switch {
	case models.IsValidation(err):
		return fiber.StatusBadRequest
	case models.IsBusinessRule(err):
		return fiber.StatusConflict
	case models.IsNotFound(err):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err with the status its kind maps to. Internal errors are
// logged and their detail is not sent to the client.
func writeError(c *fiber.Ctx, logger *zap.Logger, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error(message,
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{
			"message": message,
		})
	}

	body := fiber.Map{
		"message": message,
		"error":   err.Error(),
	}
	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) {
		body["field"] = fieldErr.Field
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return badRequest(c, "Validation failed", err)
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// ErrorHandler is the fiber.Config ErrorHandler. It covers errors that escape
// the handlers, such as unknown routes and panics caught by recover.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
			})
		}
		return writeError(c, logger, "Internal server error", err)
	}
}
