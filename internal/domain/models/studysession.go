// internal/domain/models/studysession.go
package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wire layouts for session dates and times. Both are fixed width, so string
// order equals chronological order and range filters can run in the database.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ErrInvalidSessionWindow is returned when a session's times do not describe
// a positive interval on a single day.
var ErrInvalidSessionWindow = errors.New("session end time must be after start time")

// StudySession is a scheduled meeting of a group. Sessions never span
// midnight: StartTime and EndTime share Date.
type StudySession struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	CreatorID   primitive.ObjectID `bson:"creator_id" json:"creator_id"`
	Date        string             `bson:"date" json:"date"`             // YYYY-MM-DD
	StartTime   string             `bson:"start_time" json:"start_time"` // HH:MM:SS
	EndTime     string             `bson:"end_time" json:"end_time"`     // HH:MM:SS
	Location    string             `bson:"location" json:"location"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SessionAttendee records that a user plans to attend a session.
type SessionAttendee struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"session_id" json:"session_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Window returns the start and end instants of the session in loc.
// Both instants are built on the session's own date.
func (s StudySession) Window(loc *time.Location) (start, end time.Time, err error) {
	day, err := time.ParseInLocation(DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", s.Date, err)
	}
	st, err := time.Parse(TimeLayout, s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start time %q: %w", s.StartTime, err)
	}
	et, err := time.Parse(TimeLayout, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end time %q: %w", s.EndTime, err)
	}
	y, m, d := day.Date()
	start = time.Date(y, m, d, st.Hour(), st.Minute(), st.Second(), 0, loc)
	end = time.Date(y, m, d, et.Hour(), et.Minute(), et.Second(), 0, loc)
	return start, end, nil
}

// Validate checks the date and time fields and the end > start invariant.
func (s StudySession) Validate() error {
	start, end, err := s.Window(time.UTC)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return ErrInvalidSessionWindow
	}
	return nil
}

// DurationHours returns the length of the session in hours, never negative.
// The wall-clock instants are resolved in loc, so a session that crosses a
// daylight-saving transition is credited with the real elapsed time.
func (s StudySession) DurationHours(loc *time.Location) (float64, error) {
	start, end, err := s.Window(loc)
	if err != nil {
		return 0, err
	}
	h := end.Sub(start).Hours()
	if h < 0 {
		return 0, nil
	}
	return h, nil
}
