package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
	RoleTutor   = "tutor"
)

type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string             `bson:"userId,omitempty" json:"userId,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Role      string             `bson:"role,omitempty" json:"role,omitempty" validate:"omitempty,oneof=admin student tutor"`
	IsActive  *bool              `bson:"isActive,omitempty" json:"isActive,omitempty"`
	Subjects  []string           `bson:"subjects,omitempty" json:"subjects,omitempty"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// AdminUser is the bcrypt credential store consulted after the env allowlist.
type AdminUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
