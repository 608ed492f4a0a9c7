package httpserver

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseBody decodes the JSON request body into dst and checks its
// validate tags. Both failure modes surface as KindValidation so they map
// to 400 with a stable error code.
func ParseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.New(apperr.KindValidation, "Request", "INVALID_REQUEST_BODY",
			"Invalid Request Body", "request body is not valid JSON")
	}

	if err := validate.Struct(dst); err != nil {
		return apperr.New(apperr.KindValidation, "Request", "INVALID_REQUEST_FIELDS",
			"Invalid Request Fields", err.Error())
	}

	return nil
}
