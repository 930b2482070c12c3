// Package timezones localizes wall-clock time to the deployment's reference
// zone. Every past/future decision about study sessions goes through a
// Reference so that the reconciler, the session listing and the progress
// projection agree on what "now" is.
package timezones

import (
	"fmt"
	"sync"
	"time"

	"github.com/melbminds/studyhub/internal/domain/models"
)

// DefaultZone is used when no zone is configured.
const DefaultZone = "Australia/Melbourne"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a settable clock for tests and diagnostics.
type FixedClock struct {
	mu sync.RWMutex
	t  time.Time
}

// NewFixedClock returns a clock stopped at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

// Now returns the stored instant.
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Reference pairs a Clock with the reference location.
type Reference struct {
	clock Clock
	loc   *time.Location
}

// NewReference loads the named IANA zone. An empty name selects DefaultZone.
// A nil clock selects SystemClock.
func NewReference(zone string, clock Clock) (*Reference, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Reference{clock: clock, loc: loc}, nil
}

// Valid reports whether zone names a loadable location.
func Valid(zone string) bool {
	_, err := time.LoadLocation(zone)
	return zone != "" && err == nil
}

// Location returns the reference location.
func (r *Reference) Location() *time.Location { return r.loc }

// Now returns the current instant in the reference location, truncated to
// the second.
func (r *Reference) Now() time.Time {
	return r.clock.Now().In(r.loc).Truncate(time.Second)
}

// Cutoff returns the date/time boundary for the current instant.
func (r *Reference) Cutoff() Cutoff {
	return CutoffAt(r.Now())
}

// Cutoff is "now" split into the same string forms sessions are stored in.
type Cutoff struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM:SS
}

// CutoffAt formats t (already in the reference location) as a Cutoff.
func CutoffAt(t time.Time) Cutoff {
	return Cutoff{
		Date: t.Format(models.DateLayout),
		Time: t.Format(models.TimeLayout),
	}
}

// IsPast reports whether a session on date ending at endTime has ended.
// A session ending exactly at the cutoff is past.
func (c Cutoff) IsPast(date, endTime string) bool {
	if date < c.Date {
		return true
	}
	return date == c.Date && endTime <= c.Time
}
