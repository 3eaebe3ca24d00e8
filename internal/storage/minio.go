package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tutorhub/tutorhub-api/internal/config"
	"github.com/tutorhub/tutorhub-api/internal/logger"
)

// ObjectStore keeps tutor material files in a single MinIO bucket.
type ObjectStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

func NewObjectStore(ctx context.Context, cfg config.MinioConfig, log *logger.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Create required bucket if it doesn't exist
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.Warn("failed to check bucket existence", "bucket", cfg.Bucket, "error", err)
	} else if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			log.Warn("failed to create bucket", "bucket", cfg.Bucket, "error", err)
		} else {
			log.Info("created bucket", "bucket", cfg.Bucket)
		}
	}

	return &ObjectStore{client: client, bucket: cfg.Bucket, endpoint: cfg.Endpoint, secure: cfg.UseSSL}, nil
}

func (s *ObjectStore) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectName, err)
	}
	return nil
}

// PresignedURL returns a time-limited GET link for objectName.
func (s *ObjectStore) PresignedURL(ctx context.Context, objectName, downloadName string, expiry time.Duration) (string, error) {
	params := url.Values{}
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

func (s *ObjectStore) Remove(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

// ObjectURL is the stable (non-presigned) address stored on the document.
func (s *ObjectStore) ObjectURL(objectName string) string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, url.PathEscape(objectName))
}
