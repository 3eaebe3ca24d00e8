package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/query"
)

func (h *Handler) InstantSubjects(c *fiber.Ctx) error {
	docs, err := h.Instant.Subjects(c.UserContext())
	if err != nil {
		return h.fail(c, err, db.Subjects)
	}
	return c.JSON(fiber.Map{"ok": true, "items": query.ShapeAll(h.shape, docs)})
}

// InstantTutors lists active tutors teaching ?subject=.
func (h *Handler) InstantTutors(c *fiber.Ctx) error {
	docs, err := h.Instant.Tutors(c.UserContext(), c.Query("subject"))
	if err != nil {
		return h.fail(c, err, db.Profiles)
	}
	return c.JSON(fiber.Map{"ok": true, "items": query.ShapeAll(h.shape, docs)})
}

func (h *Handler) CreateInstantRequest(c *fiber.Ctx) error {
	var r models.InstantRequest
	if err := h.decodeBody(c, &r); err != nil {
		return h.fail(c, err, db.InstantRequests)
	}
	doc, err := h.Instant.CreateRequest(c.UserContext(), r)
	if err != nil {
		return h.fail(c, err, db.InstantRequests)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "item": h.item(doc)})
}
