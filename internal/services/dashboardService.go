package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/utils"
)

type counter struct {
	name       string
	collection string
	filter     bson.M
}

type Dashboard struct {
	Profile bson.M           `json:"profile,omitempty"`
	Counts  map[string]int64 `json:"counts"`
}

type DashboardService struct {
	store    db.Store
	profiles *ProfileService
}

func NewDashboardService(store db.Store, profiles *ProfileService) *DashboardService {
	return &DashboardService{store: store, profiles: profiles}
}

func (s *DashboardService) Admin(ctx context.Context) (*Dashboard, error) {
	return s.count(ctx, nil, []counter{
		{"users", db.Profiles, nil},
		{"students", db.Profiles, bson.M{"role": models.RoleStudent}},
		{"tutors", db.Profiles, bson.M{"role": models.RoleTutor}},
		{"admins", db.Profiles, bson.M{"role": models.RoleAdmin}},
		{"pendingTutorApplications", "tutor_applications", bson.M{"status": "pending"}},
		{"classes", "classes", nil},
		{"studyNotes", db.StudyNotes, nil},
		{"flashcardSets", db.FlashcardSets, nil},
		{"tutorMaterials", db.TutorMaterials, nil},
		{"openInstantRequests", db.InstantRequests, bson.M{"status": models.InstantStatusOpen}},
	})
}

func (s *DashboardService) Tutor(ctx context.Context, email string) (*Dashboard, error) {
	email, profile, err := s.owner(ctx, email)
	if err != nil {
		return nil, err
	}
	by := bson.M{"tutorEmail": email}
	return s.count(ctx, profile, []counter{
		{"classes", "classes", by},
		{"bookings", "class_bookings", by},
		{"materials", db.TutorMaterials, by},
		{"reviews", "reviews", by},
		{"availability", "tutor_availability", by},
	})
}

func (s *DashboardService) Student(ctx context.Context, email string) (*Dashboard, error) {
	email, profile, err := s.owner(ctx, email)
	if err != nil {
		return nil, err
	}
	by := bson.M{"studentEmail": email}
	return s.count(ctx, profile, []counter{
		{"bookings", "class_bookings", by},
		{"quizAttempts", "quiz_attempts", by},
		{"enrollments", "enrollments", by},
		{"instantRequests", db.InstantRequests, by},
		{"submissions", "submissions", by},
	})
}

func (s *DashboardService) owner(ctx context.Context, email string) (string, bson.M, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil, apierr.BadRequest("email is required")
	}
	profile, err := s.profiles.ByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	return email, profile, nil
}

// count issues every count query concurrently.
func (s *DashboardService) count(ctx context.Context, profile bson.M, counters []counter) (*Dashboard, error) {
	tasks := make([]utils.ParallelTask[int64], len(counters))
	for i, c := range counters {
		tasks[i] = func() (int64, error) {
			filter := c.filter
			if filter == nil {
				filter = bson.M{}
			}
			return s.store.Count(ctx, c.collection, filter)
		}
	}
	totals, errs := utils.RunParallelTasks(tasks)
	if err := utils.FirstError(errs); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	out := &Dashboard{Profile: profile, Counts: make(map[string]int64, len(counters))}
	for i, c := range counters {
		out.Counts[c.name] = totals[i]
	}
	return out, nil
}
