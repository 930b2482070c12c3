package reconcile

import (
	"context"
	"fmt"
	"math"

	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultTargetHours is used when neither the group nor the configuration
// sets a target.
const DefaultTargetHours = 10

// PastSessionLister lists a group's ended sessions that no pass has
// reconciled yet.
type PastSessionLister interface {
	ListPastByGroup(ctx context.Context, c timezones.Cutoff, groupID primitive.ObjectID) ([]models.StudySession, error)
}

// Progress is a group's displayed progress toward its target.
type Progress struct {
	TotalHours  float64 `json:"total_study_hours"`
	TargetHours float64 `json:"target_hours"`
	Percentage  float64 `json:"progress_percentage"`
}

// Projector computes live group progress: the ledger plus sessions that have
// ended but are still waiting for the reconciler. It uses the same cutoff as
// a pass would, so the figure it shows is the one the next pass will commit.
type Projector struct {
	Sessions      PastSessionLister
	Clock         *timezones.Reference
	DefaultTarget float64
	Log           *zap.Logger
}

// Project returns g's progress.
func (p *Projector) Project(ctx context.Context, g models.Group) (Progress, error) {
	total := g.ProgressHours

	past, err := p.Sessions.ListPastByGroup(ctx, p.Clock.Cutoff(), g.ID)
	if err != nil {
		return Progress{}, fmt.Errorf("list pending sessions for group %s: %w", g.ID.Hex(), err)
	}
	for _, s := range past {
		if s.Validate() != nil {
			continue
		}
		h, err := s.DurationHours(p.Clock.Location())
		if err != nil {
			if p.Log != nil {
				p.Log.Warn("projection skipped session", zap.String("session_id", s.ID.Hex()), zap.Error(err))
			}
			continue
		}
		total += h
	}

	target := p.target(g)
	return Progress{
		TotalHours:  round2(total),
		TargetHours: target,
		Percentage:  Percentage(total, target),
	}, nil
}

func (p *Projector) target(g models.Group) float64 {
	if g.TargetHours > 0 {
		return g.TargetHours
	}
	if p.DefaultTarget > 0 {
		return p.DefaultTarget
	}
	return DefaultTargetHours
}

// Percentage is min(100, round2(total / max(target, 1) * 100)).
func Percentage(total, target float64) float64 {
	pct := round2(total / math.Max(target, 1) * 100)
	return math.Min(100, pct)
}
