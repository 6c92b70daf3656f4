// Package httpx holds the JSON envelope and fiber middleware shared by all routes.
package httpx

import (
	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// List writes a collection with its length in count.
func List[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: items, Count: &n})
}
