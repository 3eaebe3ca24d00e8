package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/logger"
	"github.com/tutorhub/tutorhub-api/internal/models"
)

// StudyNoteSearchFields are matched by the study note search endpoint.
var StudyNoteSearchFields = []string{"title", "description", "subject", "content"}

// ContentService creates study content and bumps its counters.
type ContentService struct {
	store db.Store
	log   *logger.Logger
}

func NewContentService(store db.Store, log *logger.Logger) *ContentService {
	return &ContentService{store: store, log: log}
}

// Increment adds one to a counter field of the document with id.
func (s *ContentService) Increment(ctx context.Context, collection, id, field string) (bson.M, error) {
	doc, err := s.store.Increment(ctx, collection, db.IDFilter(id), field, 1)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierr.NotFound(fmt.Sprintf("%s %s not found", collection, id))
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ContentService) CreateStudyNote(ctx context.Context, n models.StudyNote) (bson.M, error) {
	n.CreatedAt, n.UpdatedAt = stamp()
	n.Views, n.Downloads = 0, 0
	return s.insert(ctx, db.StudyNotes, n)
}

func (s *ContentService) CreateFlashcardSet(ctx context.Context, set models.FlashcardSet) (bson.M, error) {
	set.CreatedAt, set.UpdatedAt = stamp()
	set.Views, set.CardCount = 0, 0
	return s.insert(ctx, db.FlashcardSets, set)
}

// CreateFlashcards inserts the cards and raises cardCount on each parent set.
// Cards without an explicit order keep their position in the batch.
func (s *ContentService) CreateFlashcards(ctx context.Context, cards []models.Flashcard) ([]bson.M, error) {
	if len(cards) == 0 {
		return nil, apierr.BadRequest("at least one flashcard is required")
	}
	created, updated := stamp()
	perSet := map[string]int{}
	var order []string
	docs := make([]interface{}, len(cards))
	for i, c := range cards {
		if c.OrderIndex == nil {
			pos := i
			c.OrderIndex = &pos
		}
		c.CreatedAt, c.UpdatedAt = created, updated
		docs[i] = c
		if perSet[c.SetID] == 0 {
			order = append(order, c.SetID)
		}
		perSet[c.SetID]++
	}

	out, err := s.store.InsertMany(ctx, db.Flashcards, docs)
	if err != nil {
		return nil, fmt.Errorf("insert flashcards: %w", err)
	}
	for _, setID := range order {
		_, err := s.store.Increment(ctx, db.FlashcardSets, db.IDFilter(setID), "cardCount", perSet[setID])
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			s.log.Warn("failed to update card count", "set_id", setID, "error", err)
		}
	}
	return out, nil
}

func (s *ContentService) CreateTutorMaterial(ctx context.Context, m models.TutorMaterial) (bson.M, error) {
	m.CreatedAt, m.UpdatedAt = stamp()
	m.DownloadCount = 0
	return s.insert(ctx, db.TutorMaterials, m)
}

func (s *ContentService) insert(ctx context.Context, collection string, doc interface{}) (bson.M, error) {
	out, err := s.store.Insert(ctx, collection, doc)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	return out, nil
}

func stamp() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now, now
}
