package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/models"
)

type ProfileService struct {
	store db.Store
}

func NewProfileService(store db.Store) *ProfileService {
	return &ProfileService{store: store}
}

// Upsert matches on userId when given, otherwise on email, then re-reads
// the stored profile.
func (s *ProfileService) Upsert(ctx context.Context, p models.Profile) (bson.M, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.UserID == "" && p.Email == "" {
		return nil, apierr.BadRequest("user_id or email is required")
	}

	filter := bson.M{"email": p.Email}
	if p.UserID != "" {
		filter = bson.M{"userId": p.UserID}
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	onInsert := bson.M{"createdAt": now}
	if p.UserID != "" {
		set["userId"] = p.UserID
	}
	if p.Email != "" {
		set["email"] = p.Email
	}
	if p.Name != "" {
		set["name"] = p.Name
	}
	if p.Role != "" {
		set["role"] = p.Role
	} else {
		onInsert["role"] = models.RoleStudent
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	} else {
		onInsert["isActive"] = true
	}
	if p.Subjects != nil {
		set["subjects"] = p.Subjects
	}

	if err := s.store.Upsert(ctx, db.Profiles, filter, set, onInsert); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	var out bson.M
	if err := s.store.FindOne(ctx, db.Profiles, filter, &out); err != nil {
		return nil, fmt.Errorf("refetch profile: %w", err)
	}
	return out, nil
}

// ByEmail returns nil without error when no profile exists.
func (s *ProfileService) ByEmail(ctx context.Context, email string) (bson.M, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var out bson.M
	err := s.store.FindOne(ctx, db.Profiles, bson.M{"email": email}, &out)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile by email: %w", err)
	}
	return out, nil
}
