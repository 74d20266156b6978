package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// PrincipalHeader carries the authenticated principal ID, set by the
	// upstream gateway after authentication. This service never
	// authenticates; it only authorizes against this identifier.
	PrincipalHeader = "X-Principal-ID"
	// PrincipalLocalKey is the key used to store the principal ID in Fiber's context locals.
	PrincipalLocalKey = "principal_id"
)

// Principal requires an authenticated principal on every request it guards.
// Requests without the header are rejected before any handler runs.
func Principal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(PrincipalHeader)
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"request_id": c.Locals(RequestIDLocalKey),
				"error": fiber.Map{
					"code":    "PRINCIPAL_REQUIRED",
					"message": "authenticated principal is required",
				},
			})
		}
		c.Locals(PrincipalLocalKey, id)
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal ID stored by Principal, or "".
func PrincipalFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals(PrincipalLocalKey).(string); ok {
		return v
	}
	return ""
}
