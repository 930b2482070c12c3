// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a study group for one subject.
//
// NOTE:
//   - Members are not embedded; see the group_memberships collection.
//   - ProgressHours is the ledger of credited study hours. Only the session
//     reconciler advances it, and it never decreases.
//   - TargetHours of zero means "use the configured default".
type Group struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	NameCI          string             `bson:"name_ci" json:"-"`
	SubjectCode     string             `bson:"subject_code" json:"subject_code"`
	CourseName      string             `bson:"course_name,omitempty" json:"course_name,omitempty"`
	Description     string             `bson:"description" json:"description"`
	YearLevel       string             `bson:"year_level" json:"year_level"`
	MeetingFormat   string             `bson:"meeting_format" json:"meeting_format"`
	PrimaryLanguage string             `bson:"primary_language" json:"primary_language"`
	MeetingSchedule string             `bson:"meeting_schedule,omitempty" json:"meeting_schedule,omitempty"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	Tags            []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	PersonalityTags []string           `bson:"personality_tags,omitempty" json:"personality_tags,omitempty"`
	Guidelines      string             `bson:"guidelines,omitempty" json:"guidelines,omitempty"`
	CreatorID       primitive.ObjectID `bson:"creator_id" json:"creator_id"`

	ProgressHours float64 `bson:"progress_hours" json:"progress_hours"`
	TargetHours   float64 `bson:"target_hours" json:"target_hours"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
