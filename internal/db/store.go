package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	Profiles        = "profiles"
	AdminUsers      = "admin_users"
	Subjects        = "subjects"
	NoteSubjects    = "note_subjects"
	GradeLevels     = "grade_levels"
	StudyNotes      = "study_notes"
	FlashcardSets   = "flashcard_sets"
	Flashcards      = "flashcards"
	TutorMaterials  = "tutor_materials"
	InstantRequests = "instant_requests"
)

var ErrNotFound = errors.New("document not found")

type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64
}

// Store is the document access used by the services. Documents come back
// as bson.M so that loosely shaped collections survive the round trip.
type Store interface {
	Find(ctx context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.M, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error
	Insert(ctx context.Context, collection string, doc interface{}) (bson.M, error)
	InsertMany(ctx context.Context, collection string, docs []interface{}) ([]bson.M, error)
	// Upsert applies set to the first match, or inserts filter+set+setOnInsert.
	Upsert(ctx context.Context, collection string, filter, set, setOnInsert bson.M) error
	// Increment atomically adds by to field and returns the updated document.
	Increment(ctx context.Context, collection string, filter bson.M, field string, by int) (bson.M, error)
}

// ToDocument converts a struct (or map) into a bson.M using its bson tags.
func ToDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDFilter matches a document by hex ObjectID, or by the raw string id.
func IDFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}
