package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/diabetapp-backend/internal/apperror"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
)

// ErrorBody is the body of every failed response.
type ErrorBody struct {
	Success bool                  `json:"success"`
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

// ErrorHandler is installed as fiber's Config.ErrorHandler. Handlers return
// errors and this is the only place they become status codes and bodies.
func ErrorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := Resolve(err)
		if status >= http.StatusInternalServerError {
			log.Error(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"code", body.Code,
				"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
				"error", err,
			)
		}
		return c.Status(status).JSON(body)
	}
}

// Resolve maps an error to a status code and client-safe body.
func Resolve(err error) (int, ErrorBody) {
	if appErr, ok := apperror.As(err); ok {
		return apperror.Status(appErr.Kind), ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, ErrorBody{Code: fiberCode(fe.Code), Message: fe.Message}
	}

	return http.StatusInternalServerError, ErrorBody{
		Code:    apperror.Internal.Code,
		Message: apperror.Internal.Message,
	}
}

func fiberCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
