package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware ensures that only users with "admin" role can access admin
// routes. It must run after AuthMiddleware.
func AdminMiddleware(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != "admin" {
		return deny(c, fiber.StatusForbidden, "Access denied. Admins only.")
	}
	return c.Next()
}
