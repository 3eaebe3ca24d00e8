package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tutorhub/tutorhub-api/internal/services"
)

// AdminDashboard returns platform-wide counts. Requires an admin JWT.
func (h *Handler) AdminDashboard(c *fiber.Ctx) error {
	d, err := h.Dashboards.Admin(c.UserContext())
	return h.dashboard(c, d, err)
}

func (h *Handler) TutorDashboard(c *fiber.Ctx) error {
	d, err := h.Dashboards.Tutor(c.UserContext(), c.Query("email"))
	return h.dashboard(c, d, err)
}

func (h *Handler) StudentDashboard(c *fiber.Ctx) error {
	d, err := h.Dashboards.Student(c.UserContext(), c.Query("email"))
	return h.dashboard(c, d, err)
}

func (h *Handler) dashboard(c *fiber.Ctx, d *services.Dashboard, err error) error {
	if err != nil {
		return h.fail(c, err, "")
	}
	body := fiber.Map{"ok": true, "counts": d.Counts}
	if d.Profile != nil {
		body["profile"] = h.item(d.Profile)
	}
	return c.JSON(body)
}
