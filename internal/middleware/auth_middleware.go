package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer JWT and stores user_id, email and
// role in the request locals.
func AuthMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		// Get the Authorization header
		tokenString := c.Get(fiber.HeaderAuthorization)
		if tokenString == "" {
			return deny(c, fiber.StatusUnauthorized, "Missing token")
		}

		// Ensure it's a Bearer token
		tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
		if tokenString == "" {
			return deny(c, fiber.StatusUnauthorized, "Invalid token format")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return deny(c, fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "Invalid token claims")
		}

		role, roleExists := claims["role"].(string)
		if !roleExists {
			return deny(c, fiber.StatusUnauthorized, "Invalid token payload")
		}
		userID, _ := claims["user_id"].(string)
		email, _ := claims["email"].(string)

		c.Locals("user_id", userID)
		c.Locals("email", email)
		c.Locals("role", role)

		return c.Next()
	}
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": msg})
}
