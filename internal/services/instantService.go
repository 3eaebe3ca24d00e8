package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/models"
)

// InstantService backs the instant tutoring flow: pick a subject, see the
// active tutors for it, open a request.
type InstantService struct {
	store db.Store
}

func NewInstantService(store db.Store) *InstantService {
	return &InstantService{store: store}
}

func (s *InstantService) Subjects(ctx context.Context) ([]bson.M, error) {
	docs, err := s.store.Find(ctx, db.Subjects, ActiveFilter(), db.FindOptions{
		Sort:  bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}},
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("instant subjects: %w", err)
	}
	return docs, nil
}

// Tutors lists active tutor profiles, optionally restricted to one subject.
func (s *InstantService) Tutors(ctx context.Context, subject string) ([]bson.M, error) {
	filter := bson.M{"role": models.RoleTutor, "isActive": bson.M{"$ne": false}}
	if subject = strings.TrimSpace(subject); subject != "" {
		filter["subjects"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(subject) + "$", Options: "i"}
	}
	docs, err := s.store.Find(ctx, db.Profiles, filter, db.FindOptions{
		Sort:  bson.D{{Key: "name", Value: 1}},
		Limit: 200,
	})
	if err != nil {
		return nil, fmt.Errorf("instant tutors: %w", err)
	}
	return docs, nil
}

// CreateRequest stores a new request with status "open".
func (s *InstantService) CreateRequest(ctx context.Context, r models.InstantRequest) (bson.M, error) {
	r.Subject = strings.TrimSpace(r.Subject)
	r.StudentEmail = strings.ToLower(strings.TrimSpace(r.StudentEmail))
	r.Status = models.InstantStatusOpen
	r.CreatedAt = time.Now().UTC()
	out, err := s.store.Insert(ctx, db.InstantRequests, r)
	if err != nil {
		return nil, fmt.Errorf("insert instant request: %w", err)
	}
	return out, nil
}

// ActiveFilter keeps documents whose isActive flag is not explicitly false.
func ActiveFilter() bson.M {
	return bson.M{"isActive": bson.M{"$ne": false}}
}
