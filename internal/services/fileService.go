package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/logger"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/utils"
)

// DownloadURLExpiry is how long presigned material links stay valid.
const DownloadURLExpiry = 15 * time.Minute

// ObjectStorage is the subset of the object store used for materials.
type ObjectStorage interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectName, downloadName string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectName string) error
	ObjectURL(objectName string) string
}

// MaterialUpload is one uploaded file plus the metadata entered with it.
type MaterialUpload struct {
	Meta        models.TutorMaterial
	FileName    string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	Material bson.M `json:"material,omitempty"`
	FileName string `json:"fileName"`
	Error    string `json:"error,omitempty"`
}

type FileService struct {
	store   db.Store
	objects ObjectStorage
	log     *logger.Logger
	workers int
}

// NewFileService accepts a nil objects store; uploads and downloads of
// stored files then fail with 503.
func NewFileService(store db.Store, objects ObjectStorage, log *logger.Logger) *FileService {
	return &FileService{store: store, objects: objects, log: log, workers: 4}
}

func (s *FileService) Enabled() bool {
	return s.objects != nil
}

// UploadMaterials stores each file and its metadata on a small worker pool.
// Results keep the input order; a failed file has Error set.
func (s *FileService) UploadMaterials(ctx context.Context, uploads []MaterialUpload) ([]UploadResult, error) {
	if !s.Enabled() {
		return nil, apierr.Unavailable("object storage is not configured")
	}
	results := make([]UploadResult, len(uploads))
	pool := utils.NewWorkerPool(s.workers)
	defer pool.Close()

	for i, up := range uploads {
		pool.AddTask(func() {
			res := UploadResult{FileName: up.FileName}
			doc, err := s.uploadOne(ctx, up)
			if err != nil {
				s.log.Error("material upload failed", "file", up.FileName, "error", err)
				res.Error = err.Error()
			}
			res.Material = doc
			results[i] = res
		})
	}
	pool.Wait()
	return results, nil
}

func (s *FileService) uploadOne(ctx context.Context, up MaterialUpload) (bson.M, error) {
	id := primitive.NewObjectID()
	objectName := fmt.Sprintf("%s_%s", id.Hex(), safeName(up.FileName))

	m := up.Meta
	m.ID = id
	if strings.TrimSpace(m.Title) == "" {
		m.Title = strings.TrimSuffix(up.FileName, path.Ext(up.FileName))
	}
	m.TutorEmail = strings.ToLower(strings.TrimSpace(m.TutorEmail))
	m.FileName = up.FileName
	m.FileSize = int64(len(up.Data))
	m.ContentType = up.ContentType
	m.ObjectName = objectName
	m.FileURL = s.objects.ObjectURL(objectName)
	m.DownloadCount = 0
	m.CreatedAt, m.UpdatedAt = stamp()

	if err := s.objects.Put(ctx, objectName, bytes.NewReader(up.Data), int64(len(up.Data)), up.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload file to storage: %w", err)
	}

	doc, err := s.store.Insert(ctx, db.TutorMaterials, m)
	if err != nil {
		// Try to clean up the uploaded object if metadata creation fails
		if rmErr := s.objects.Remove(context.WithoutCancel(ctx), objectName); rmErr != nil {
			s.log.Warn("failed to remove orphaned object", "object", objectName, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}
	return doc, nil
}

// DownloadURL bumps downloadCount and returns a presigned link. Materials
// that point to an external fileUrl return that link instead.
func (s *FileService) DownloadURL(ctx context.Context, id string) (string, bson.M, error) {
	var material models.TutorMaterial
	err := s.store.FindOne(ctx, db.TutorMaterials, db.IDFilter(id), &material)
	if errors.Is(err, db.ErrNotFound) {
		return "", nil, apierr.NotFound("tutor material not found")
	}
	if err != nil {
		return "", nil, fmt.Errorf("file not found: %w", err)
	}

	var link string
	switch {
	case material.ObjectName != "":
		if !s.Enabled() {
			return "", nil, apierr.Unavailable("object storage is not configured")
		}
		link, err = s.objects.PresignedURL(ctx, material.ObjectName, material.FileName, DownloadURLExpiry)
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate download link: %w", err)
		}
	case material.FileURL != "":
		link = material.FileURL
	default:
		return "", nil, apierr.NotFound("tutor material has no file")
	}

	doc, err := s.store.Increment(ctx, db.TutorMaterials, db.IDFilter(id), "downloadCount", 1)
	if err != nil {
		return "", nil, fmt.Errorf("count download: %w", err)
	}
	return link, doc, nil
}

func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20 || r == '?' || r == '#' || r == '%':
			return -1
		}
		return r
	}, name)
}
