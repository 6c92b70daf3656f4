package httpx

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/diabetapp-backend/internal/apperror"
)

// ErrMalformedBody is returned when the request body is not the expected JSON.
var ErrMalformedBody = apperror.New(apperror.KindValidation, "INVALID_BODY", "Request body must be valid JSON")

func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return ErrMalformedBody.Wrap(err)
	}
	return nil
}
