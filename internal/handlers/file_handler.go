package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

const (
	maxUploadFiles = 10
	maxUploadBytes = 10 << 20
)

var uploadFields = []string{"files", "file", "pdfs", "pdf"}

type uploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// readUploads collects the multipart files, enforcing the count and size limits.
func readUploads(c *fiber.Ctx) ([]uploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apierr.BadRequest("expected a multipart/form-data body")
	}
	var headers []*multipart.FileHeader
	for _, field := range uploadFields {
		headers = append(headers, form.File[field]...)
	}
	if len(headers) == 0 {
		return nil, apierr.BadRequest("no files uploaded")
	}
	if len(headers) > maxUploadFiles {
		return nil, apierr.BadRequest(fmt.Sprintf("at most %d files per request", maxUploadFiles))
	}

	out := make([]uploadedFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			return nil, apierr.New(fiber.StatusRequestEntityTooLarge, "too_large", fmt.Errorf("%s exceeds the 10MB limit", fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		out = append(out, uploadedFile{Name: fh.Filename, ContentType: fh.Header.Get(fiber.HeaderContentType), Data: data})
	}
	return out, nil
}

func (h *Handler) CreateTutorMaterial(c *fiber.Ctx) error {
	var m models.TutorMaterial
	if err := h.decodeBody(c, &m); err != nil {
		return h.fail(c, err, db.TutorMaterials)
	}
	doc, err := h.Content.CreateTutorMaterial(c.UserContext(), m)
	if err != nil {
		return h.fail(c, err, db.TutorMaterials)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "item": h.item(doc)})
}

// UploadMaterials handles multipart tutor material uploads.
func (h *Handler) UploadMaterials(c *fiber.Ctx) error {
	if !h.Files.Enabled() {
		return h.fail(c, apierr.Unavailable("object storage is not configured"), db.TutorMaterials)
	}
	files, err := readUploads(c)
	if err != nil {
		return h.fail(c, err, db.TutorMaterials)
	}

	meta := models.TutorMaterial{
		Title:       formValue(c, "title"),
		Description: formValue(c, "description"),
		Subject:     formValue(c, "subject"),
		GradeLevel:  formValue(c, "gradeLevel", "grade_level"),
		TutorID:     formValue(c, "tutorId", "tutor_id"),
		TutorEmail:  formValue(c, "tutorEmail", "tutor_email"),
	}
	uploads := make([]services.MaterialUpload, len(files))
	for i, f := range files {
		m := meta
		if len(files) > 1 {
			m.Title = ""
		}
		uploads[i] = services.MaterialUpload{Meta: m, FileName: f.Name, ContentType: f.ContentType, Data: f.Data}
	}

	results, err := h.Files.UploadMaterials(c.UserContext(), uploads)
	if err != nil {
		return h.fail(c, err, db.TutorMaterials)
	}
	stored := 0
	for i := range results {
		if results[i].Material != nil {
			results[i].Material = h.item(results[i].Material)
			stored++
		}
	}
	if stored == 0 {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"ok": false, "error": "failed to store uploaded files", "items": results, "collection": db.TutorMaterials})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "items": results})
}

// DownloadMaterial returns a presigned link, or redirects to it with ?redirect=1.
func (h *Handler) DownloadMaterial(c *fiber.Ctx) error {
	link, doc, err := h.Files.DownloadURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, db.TutorMaterials)
	}
	if c.QueryBool("redirect") {
		return c.Redirect(link, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"ok":         true,
		"url":        link,
		"expires_in": int(services.DownloadURLExpiry.Seconds()),
		"item":       h.item(doc),
	})
}

func formValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := c.FormValue(k); v != "" {
			return v
		}
	}
	return ""
}
