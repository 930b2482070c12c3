// internal/app/features/studysessions/types.go
package studysessions

import (
	"strings"

	"github.com/melbminds/studyhub/internal/app/system/normalize"
	"github.com/melbminds/studyhub/internal/domain/models"
)

type sessionRequest struct {
	Date        string `json:"date" validate:"required,isodate" label:"Date"`
	StartTime   string `json:"start_time" validate:"required,clocktime" label:"Start time"`
	EndTime     string `json:"end_time" validate:"required,clocktime" label:"End time"`
	Location    string `json:"location" validate:"required,max=200" label:"Location"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
}

func (req *sessionRequest) normalize() {
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = normalize.ClockTime(req.StartTime)
	req.EndTime = normalize.ClockTime(req.EndTime)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)
}

type sessionView struct {
	models.StudySession
	AttendeeCount int64 `json:"attendee_count"`
}
