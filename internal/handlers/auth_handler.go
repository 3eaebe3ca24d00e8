package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorhub/tutorhub-api/internal/services"
)

// adminLoginPaths are the aliases clients have used for the admin login.
var adminLoginPaths = []string{
	"/api/auth/admin/login",
	"/api/admin/login",
	"/api/auth/login",
	"/api/login",
	"/auth/admin/login",
	"/admin/login",
	"/login",
}

func (h *Handler) AdminLogin(c *fiber.Ctx) error {
	var request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := h.decodeBody(c, &request); err != nil {
		return h.fail(c, err, "")
	}

	res, err := h.Auth.AdminLogin(c.UserContext(), request.Email, request.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "Invalid credentials"})
	}
	if err != nil {
		return h.fail(c, err, "")
	}

	return c.JSON(fiber.Map{
		"ok":           true,
		"user":         h.item(res.User),
		"token":        res.Token,
		"access_token": res.AccessToken,
	})
}
