package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TutorMaterial is a tutor-uploaded document; the file itself lives in
// object storage under ObjectName.
type TutorMaterial struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title" validate:"required"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Subject       string             `bson:"subject,omitempty" json:"subject,omitempty"`
	GradeLevel    string             `bson:"gradeLevel,omitempty" json:"gradeLevel,omitempty"`
	TutorID       string             `bson:"tutorId,omitempty" json:"tutorId,omitempty"`
	TutorEmail    string             `bson:"tutorEmail,omitempty" json:"tutorEmail,omitempty"`
	FileURL       string             `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	FileName      string             `bson:"fileName,omitempty" json:"fileName,omitempty"`
	FileSize      int64              `bson:"fileSize,omitempty" json:"fileSize,omitempty"`
	ContentType   string             `bson:"contentType,omitempty" json:"contentType,omitempty"`
	ObjectName    string             `bson:"objectName,omitempty" json:"-"`
	DownloadCount int64              `bson:"downloadCount" json:"downloadCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type StudyNote struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title" validate:"required"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Subject     string             `bson:"subject,omitempty" json:"subject,omitempty"`
	GradeLevel  string             `bson:"gradeLevel,omitempty" json:"gradeLevel,omitempty"`
	Content     string             `bson:"content,omitempty" json:"content,omitempty"`
	FileURL     string             `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	AuthorID    string             `bson:"authorId,omitempty" json:"authorId,omitempty"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	Views       int64              `bson:"views" json:"views"`
	Downloads   int64              `bson:"downloads" json:"downloads"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type FlashcardSet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title" validate:"required"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Subject     string             `bson:"subject,omitempty" json:"subject,omitempty"`
	GradeLevel  string             `bson:"gradeLevel,omitempty" json:"gradeLevel,omitempty"`
	UserID      string             `bson:"userId,omitempty" json:"userId,omitempty"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	CardCount   int                `bson:"cardCount" json:"cardCount"`
	Views       int64              `bson:"views" json:"views"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Flashcard struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SetID      string             `bson:"setId" json:"setId" validate:"required"`
	Front      string             `bson:"front" json:"front" validate:"required"`
	Back       string             `bson:"back" json:"back" validate:"required"`
	// OrderIndex is nil when the client did not send one.
	OrderIndex *int               `bson:"orderIndex" json:"orderIndex"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Subject backs both the subjects and note_subjects lists.
type Subject struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug,omitempty" json:"slug,omitempty"`
	SortOrder int                `bson:"sortOrder" json:"sortOrder"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
}

type GradeLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	SortOrder int                `bson:"sortOrder" json:"sortOrder"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
}

const InstantStatusOpen = "open"

type InstantRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	StudentEmail string             `bson:"studentEmail,omitempty" json:"studentEmail,omitempty" validate:"omitempty,email"`
	StudentID    string             `bson:"studentId,omitempty" json:"studentId,omitempty"`
	Subject      string             `bson:"subject" json:"subject" validate:"required"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
