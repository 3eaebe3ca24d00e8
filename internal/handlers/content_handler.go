package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/query"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// SearchStudyNotes matches ?term= against the text fields, combined with the
// usual q/sort/limit/offset.
func (h *Handler) SearchStudyNotes(c *fiber.Ctx) error {
	spec := studyNotesSpec
	spec.BaseFilter = services.SearchFilter(c.Query("term"), services.StudyNoteSearchFields...)
	res, err := h.Collections.List(c.UserContext(), spec, listParams(c))
	if err != nil {
		return h.fail(c, err, spec.Collection)
	}
	body := h.listBody(res)
	body["term"] = c.Query("term")
	return c.JSON(body)
}

func (h *Handler) CreateStudyNote(c *fiber.Ctx) error {
	var note models.StudyNote
	if err := h.decodeBody(c, &note); err != nil {
		return h.fail(c, err, db.StudyNotes)
	}
	doc, err := h.Content.CreateStudyNote(c.UserContext(), note)
	if err != nil {
		return h.fail(c, err, db.StudyNotes)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "item": h.item(doc)})
}

func (h *Handler) CreateFlashcardSet(c *fiber.Ctx) error {
	var set models.FlashcardSet
	if err := h.decodeBody(c, &set); err != nil {
		return h.fail(c, err, db.FlashcardSets)
	}
	doc, err := h.Content.CreateFlashcardSet(c.UserContext(), set)
	if err != nil {
		return h.fail(c, err, db.FlashcardSets)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "item": h.item(doc)})
}

// CreateFlashcards accepts a single card object or an array of cards.
func (h *Handler) CreateFlashcards(c *fiber.Ctx) error {
	raw, err := camelBody(c)
	if err != nil {
		return h.fail(c, err, db.Flashcards)
	}

	var items []interface{}
	switch t := raw.(type) {
	case []interface{}:
		items = t
	case map[string]interface{}:
		if list, ok := t["cards"].([]interface{}); ok {
			items = list
		} else {
			items = []interface{}{t}
		}
	default:
		return h.fail(c, apierr.BadRequest("expected a flashcard object or array"), db.Flashcards)
	}

	cards := make([]models.Flashcard, len(items))
	for i, it := range items {
		if err := h.bind(it, &cards[i]); err != nil {
			return h.fail(c, err, db.Flashcards)
		}
	}
	docs, err := h.Content.CreateFlashcards(c.UserContext(), cards)
	if err != nil {
		return h.fail(c, err, db.Flashcards)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "items": query.ShapeAll(h.shape, docs)})
}

func (h *Handler) UpsertProfile(c *fiber.Ctx) error {
	var p models.Profile
	if err := h.decodeBody(c, &p); err != nil {
		return h.fail(c, err, db.Profiles)
	}
	doc, err := h.Profiles.Upsert(c.UserContext(), p)
	if err != nil {
		return h.fail(c, err, db.Profiles)
	}
	return c.JSON(fiber.Map{"ok": true, "item": h.item(doc)})
}
