package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tutorhub/tutorhub-api/internal/ai"
	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/cache"
	"github.com/tutorhub/tutorhub-api/internal/config"
	"github.com/tutorhub/tutorhub-api/internal/logger"
	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/query"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

const ServiceName = "tutorhub-api"

// Deps are the collaborators the HTTP layer talks to.
type Deps struct {
	Config      *config.Config
	Log         *logger.Logger
	Auth        *services.AuthService
	Collections *services.CollectionService
	Profiles    *services.ProfileService
	Content     *services.ContentService
	Instant     *services.InstantService
	Dashboards  *services.DashboardService
	Files       *services.FileService
	Generator   *ai.Generator
	PDF         *ai.PDFExtractor
	Cache       cache.Cache
}

type Handler struct {
	Deps
	shape    query.Shaper
	validate *validator.Validate
}

func New(d Deps) *Handler {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{Deps: d, shape: query.ShaperFor(d.Config.Shape), validate: v}
}

// Register mounts the route sets selected by SERVE.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", h.Health)

	if h.Config.ServesAPI() {
		h.registerAPI(app)
	}
	if h.Config.ServesAI() {
		h.registerAI(app)
	}
}

func (h *Handler) registerAPI(app *fiber.App) {
	for _, p := range adminLoginPaths {
		app.Post(p, h.AdminLogin)
	}

	api := app.Group("/api")
	api.Get("/subjects", h.referenceList(subjectsSpec))
	api.Get("/note_subjects", h.referenceList(noteSubjectsSpec))
	api.Get("/grade_levels", h.referenceList(gradeLevelsSpec))

	api.Get("/study_notes", h.list(studyNotesSpec))
	api.Get("/study_notes/search", h.SearchStudyNotes)
	api.Post("/study_notes", h.CreateStudyNote)
	api.Post("/study_notes/:id/views", h.increment(studyNotesSpec.Collection, "views"))
	api.Post("/study_notes/:id/downloads", h.increment(studyNotesSpec.Collection, "downloads"))

	api.Get("/flashcard_sets", h.list(flashcardSetsSpec))
	api.Post("/flashcard_sets", h.CreateFlashcardSet)
	api.Post("/flashcard_sets/:id/views", h.increment(flashcardSetsSpec.Collection, "views"))
	api.Get("/flashcards", h.list(flashcardsSpec))
	api.Post("/flashcards", h.CreateFlashcards)

	api.Get("/tutor_materials", h.list(tutorMaterialsSpec))
	api.Post("/tutor_materials", h.CreateTutorMaterial)
	api.Post("/tutor_materials/upload", h.UploadMaterials)
	api.Get("/tutor_materials/:id/download", h.DownloadMaterial)

	api.Get("/profiles", h.list(profilesSpec))
	api.Post("/profiles", h.UpsertProfile)

	api.Get("/instant/subjects", h.InstantSubjects)
	api.Get("/instant/tutors", h.InstantTutors)
	api.Post("/instant/requests", h.CreateInstantRequest)
	api.Post("/instant_requests", h.CreateInstantRequest)

	dash := api.Group("/dashboard")
	dash.Get("/admin", middleware.AuthMiddleware(h.Config.JWTSecret), middleware.AdminMiddleware, h.AdminDashboard)
	dash.Get("/tutor", h.TutorDashboard)
	dash.Get("/student", h.StudentDashboard)

	for _, name := range exposedCollections {
		api.Get("/"+name, h.list(exposeSpec(name)))
	}
}

func (h *Handler) registerAI(app *fiber.App) {
	g := app.Group("/api/ai")
	g.Post("/generate", h.GenerateQuiz)
	g.Post("/flashcards", h.GenerateFlashcards)
	g.Post("/pdf/upload", h.ExtractPDFs)
	g.Post("/pdf/extract-text", h.ExtractPDFs)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "service": ServiceName, "time": time.Now().UTC()})
}

// fail writes {ok:false, error[, collection]} with the status carried by err.
func (h *Handler) fail(c *fiber.Ctx, err error, collection string) error {
	status := apierr.StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		h.Log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	body := fiber.Map{"ok": false, "error": err.Error()}
	if collection != "" {
		body["collection"] = collection
	}
	return c.Status(status).JSON(body)
}

// decodeBody camelizes the JSON body keys, decodes into out and validates it.
func (h *Handler) decodeBody(c *fiber.Ctx, out interface{}) error {
	raw, err := camelBody(c)
	if err != nil {
		return err
	}
	return h.bind(raw, out)
}

func (h *Handler) bind(raw interface{}, out interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return apierr.BadRequest("invalid JSON body")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return apierr.New(fiber.StatusBadRequest, "bad_request", fmt.Errorf("invalid JSON body: %w", err))
	}
	return h.check(out)
}

func (h *Handler) check(v interface{}) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierr.BadRequest(err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apierr.BadRequest(fe.Field() + " is required")
	case "email":
		return apierr.BadRequest(fe.Field() + " must be a valid email")
	case "oneof":
		return apierr.BadRequest(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	}
	return apierr.BadRequest(fe.Field() + " is invalid")
}

func camelBody(c *fiber.Ctx) (interface{}, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]interface{}{}, nil
	}
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apierr.BadRequest("invalid JSON body")
	}
	return query.CamelizeKeys(raw), nil
}

func (h *Handler) item(doc bson.M) bson.M {
	return h.shape(doc)
}

// ErrorHandler renders unrouted and unhandled errors as {ok:false, error}.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apierr.StatusOf(err)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(status).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
}
