package httpx

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/diabetapp-backend/internal/logging"
)

// RequestLogger logs one line per request. Errors returned down the chain are
// rendered here through the app's ErrorHandler so the logged status is final.
func RequestLogger(log logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		args := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Warn(c.UserContext(), "request", args...)
		default:
			log.Info(c.UserContext(), "request", args...)
		}
		return nil
	}
}
