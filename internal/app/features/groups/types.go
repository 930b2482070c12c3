// internal/app/features/groups/types.go
package groups

import (
	"math"

	"github.com/melbminds/studyhub/internal/app/reconcile"
	"github.com/melbminds/studyhub/internal/domain/models"
)

// groupSummary is one row of GET /api/groups.
type groupSummary struct {
	models.Group
	MemberCount   int64   `json:"member_count"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

// groupDetail is the body of GET /api/groups/{id}.
type groupDetail struct {
	groupSummary
	reconcile.Progress
	IsMember  bool `json:"is_member"`
	IsCreator bool `json:"is_creator"`
}

type createGroupRequest struct {
	Name            string   `json:"name" validate:"required,max=120" label:"Group name"`
	SubjectCode     string   `json:"subject_code" validate:"required,max=20" label:"Subject code"`
	CourseName      string   `json:"course_name" validate:"max=200" label:"Course name"`
	Description     string   `json:"description" validate:"max=2000" label:"Description"`
	YearLevel       string   `json:"year_level" validate:"max=20" label:"Year level"`
	MeetingFormat   string   `json:"meeting_format" validate:"omitempty,oneof=online in-person hybrid" label:"Meeting format"`
	PrimaryLanguage string   `json:"primary_language" validate:"max=40" label:"Primary language"`
	MeetingSchedule string   `json:"meeting_schedule" validate:"max=200" label:"Meeting schedule"`
	Location        string   `json:"location" validate:"max=200" label:"Location"`
	Tags            []string `json:"tags" validate:"max=20,dive,max=40" label:"Tags"`
	PersonalityTags []string `json:"personality_tags" validate:"max=20,dive,max=40" label:"Personality tags"`
	Guidelines      string   `json:"guidelines" validate:"max=4000" label:"Guidelines"`
	TargetHours     float64  `json:"target_hours" validate:"gte=0,lte=10000" label:"Target hours"`
}

type targetRequest struct {
	TargetHours float64 `json:"target_hours" validate:"gte=1,lte=10000" label:"Target hours"`
}

type ratingRequest struct {
	Score int `json:"score" validate:"gte=1,lte=5" label:"Rating"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
