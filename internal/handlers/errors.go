package handlers

import (
	"errors"

	"ordersvc/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler is the Fiber error handler. Handlers return business errors
// unchanged and this maps them to status codes: shape and business rule
// violations to 400, missing resources to 404, uniqueness conflicts to 409,
// authentication failures to 401 and everything else to 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	}

	status := statusFor(err)
	fields := log.Fields{"method": c.Method(), "path": c.Path(), "status": status}
	if status >= fiber.StatusInternalServerError {
		log.WithError(err).WithFields(fields).Error("Request failed")
		return c.Status(status).JSON(fiber.Map{
			"message": "Internal server error",
			"error":   utils.StatusMessage(status),
		})
	}

	log.WithError(err).WithFields(fields).Debug("Request rejected")
	message := err.Error()
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message = fiberErr.Message
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   utils.StatusMessage(status),
	})
}

func statusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidCustomer),
		errors.Is(err, services.ErrNoProductsFound),
		errors.Is(err, services.ErrInvalidProductSet),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrProductNameRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrProductNameTaken),
		errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
