package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/query"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

var (
	subjectsSpec     = referenceSpec(db.Subjects)
	noteSubjectsSpec = referenceSpec(db.NoteSubjects)
	gradeLevelsSpec  = referenceSpec(db.GradeLevels)

	studyNotesSpec     = contentSpec(db.StudyNotes)
	flashcardSetsSpec  = contentSpec(db.FlashcardSets)
	tutorMaterialsSpec = contentSpec(db.TutorMaterials)
	profilesSpec       = contentSpec(db.Profiles)
	flashcardsSpec     = services.ListSpec{
		Collection:   db.Flashcards,
		DefaultLimit: 200,
		MaxLimit:     1000,
		DefaultSort:  bson.D{{Key: "orderIndex", Value: 1}},
	}
)

// exposedCollections get a plain list endpoint under /api/<name>.
var exposedCollections = []string{
	"classes", "class_bookings", "tutor_applications", "tutor_availability",
	"quizzes", "quiz_questions", "quiz_attempts", "messages", "conversations",
	"notifications", "payments", "reviews", "announcements", "courses",
	"lessons", "enrollments", "assignments", "submissions", "schedules",
	"resources",
}

func referenceSpec(collection string) services.ListSpec {
	return services.ListSpec{
		Collection:   collection,
		DefaultLimit: 1000,
		MaxLimit:     1000,
		DefaultSort:  bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}},
		BaseFilter:   services.ActiveFilter(),
	}
}

func contentSpec(collection string) services.ListSpec {
	return services.ListSpec{Collection: collection, DefaultLimit: 50, MaxLimit: 200, DefaultSort: newestFirst}
}

func exposeSpec(collection string) services.ListSpec {
	return contentSpec(collection)
}

func listParams(c *fiber.Ctx) services.ListParams {
	return services.ListParams{
		Q:      c.Query("q"),
		Sort:   c.Query("sort"),
		Limit:  c.Query("limit"),
		Offset: c.Query("offset"),
	}
}

func (h *Handler) listBody(res *services.ListResult) fiber.Map {
	return fiber.Map{
		"items":      query.ShapeAll(h.shape, res.Items),
		"total":      res.Total,
		"limit":      res.Limit,
		"offset":     res.Offset,
		"collection": res.Collection,
	}
}

// list serves ?q=&sort=&limit=&offset= over one collection.
func (h *Handler) list(spec services.ListSpec) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := h.Collections.List(c.UserContext(), spec, listParams(c))
		if err != nil {
			return h.fail(c, err, spec.Collection)
		}
		return c.JSON(h.listBody(res))
	}
}

// referenceList is list with the rendered body cached per query string.
func (h *Handler) referenceList(spec services.ListSpec) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := "list:" + spec.Collection + "?" + string(c.Request().URI().QueryString())

		cached, ok, err := h.Cache.Get(ctx, key)
		if err != nil {
			h.Log.Warn("cache get failed", "key", key, "error", err)
		}
		if ok {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.Send(cached)
		}

		res, err := h.Collections.List(ctx, spec, listParams(c))
		if err != nil {
			return h.fail(c, err, spec.Collection)
		}
		body, err := json.Marshal(h.listBody(res))
		if err != nil {
			return h.fail(c, err, spec.Collection)
		}
		if err := h.Cache.Set(ctx, key, body, h.Config.CacheTTL); err != nil {
			h.Log.Warn("cache set failed", "key", key, "error", err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(body)
	}
}

// increment bumps a counter on the :id document.
func (h *Handler) increment(collection, field string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := h.Content.Increment(c.UserContext(), collection, c.Params("id"), field)
		if err != nil {
			return h.fail(c, err, collection)
		}
		return c.JSON(fiber.Map{"ok": true, "item": h.item(doc)})
	}
}
