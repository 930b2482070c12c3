// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a registered student (or an operator with the admin role).
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
//   - PasswordHash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // folded for case-insensitive lookup
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // student | admin

	// Study profile, used by recommendations.
	Major                string   `bson:"major" json:"major"`
	YearLevel            string   `bson:"year_level" json:"year_level"`
	PreferredStudyFormat string   `bson:"preferred_study_format" json:"preferred_study_format"`
	Languages            []string `bson:"languages,omitempty" json:"languages,omitempty"`
	Bio                  string   `bson:"bio,omitempty" json:"bio,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
