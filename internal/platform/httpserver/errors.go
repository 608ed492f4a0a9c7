package httpserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// WithError maps an error's apperr.Kind to its HTTP status.
func WithError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(Envelope{
			Message: "internal server error",
			Code:    "INTERNAL_SERVER_ERROR",
		})
	}

	status := statusFor(appErr.Kind)

	return c.Status(status).JSON(Envelope{
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidStateTransition,
		apperr.KindInsufficientFunds, apperr.KindLimitExceeded:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindDuplicate, apperr.KindIdempotencyReplay, apperr.KindConcurrency:
		return fiber.StatusConflict
	case apperr.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case apperr.KindUnauthorized:
		return fiber.StatusForbidden
	case apperr.KindRateLimited:
		return fiber.StatusTooManyRequests
	case apperr.KindDependency, apperr.KindCompensation:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
