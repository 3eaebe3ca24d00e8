package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorhub/tutorhub-api/internal/ai"
)

// GenerateQuiz has no fallback content: upstream and parse failures are
// returned to the caller.
func (h *Handler) GenerateQuiz(c *fiber.Ctx) error {
	var req ai.QuizRequest
	if err := h.decodeBody(c, &req); err != nil {
		return h.fail(c, err, "")
	}

	res, err := h.Generator.GenerateQuiz(c.UserContext(), req)
	if err != nil {
		return h.aiError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "questions": res.Questions, "model": res.Model})
}

// GenerateFlashcards always answers 200; failures produce the fallback deck.
func (h *Handler) GenerateFlashcards(c *fiber.Ctx) error {
	var req ai.FlashcardRequest
	if err := h.decodeBody(c, &req); err != nil {
		return h.fail(c, err, "")
	}

	res := h.Generator.GenerateFlashcards(c.UserContext(), req)
	return c.JSON(fiber.Map{
		"ok":       true,
		"cards":    res.Cards,
		"fallback": res.Fallback,
		"source":   res.Source,
		"model":    res.Model,
	})
}

// ExtractPDFs returns the text of each uploaded PDF and the joined context.
func (h *Handler) ExtractPDFs(c *fiber.Ctx) error {
	uploads, err := readUploads(c)
	if err != nil {
		return h.fail(c, err, "")
	}
	files := make([]ai.PDFFile, len(uploads))
	for i, u := range uploads {
		files[i] = ai.PDFFile{Name: u.Name, Data: u.Data}
	}

	extracted := h.PDF.ExtractMany(c.UserContext(), files)
	texts := make([]string, 0, len(extracted))
	for _, f := range extracted {
		if f.Text != "" {
			texts = append(texts, f.Text)
		}
	}
	return c.JSON(fiber.Map{
		"ok":    true,
		"files": extracted,
		"text":  strings.Join(texts, ai.ContextSeparator),
	})
}

func (h *Handler) aiError(c *fiber.Ctx, err error) error {
	var malformed *ai.MalformedOutputError
	var upstream *ai.UpstreamError
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false, "error": err.Error()})
	case errors.As(err, &malformed):
		h.Log.Error("quiz output malformed", "path", c.Path(), "chars", len(malformed.Raw))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error(), "raw": malformed.Raw})
	case errors.As(err, &upstream):
		status := upstream.Status
		if status == 0 {
			status = fiber.StatusBadGateway
		}
		h.Log.Warn("completion upstream failed", "status", status, "error", err)
		return c.Status(status).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return h.fail(c, err, "")
}
