package middleware

import "github.com/gofiber/fiber/v2"

// Noop passes the request on unchanged.
func Noop() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}

// When returns h if enabled and Noop otherwise, so optional middleware such as
// tracing can stay in the chain unconditionally.
func When(enabled bool, h fiber.Handler) fiber.Handler {
	if !enabled || h == nil {
		return Noop()
	}
	return h
}
