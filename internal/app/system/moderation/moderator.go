// internal/app/system/moderation/moderator.go
package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/melbminds/studyhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Detector is an external toxicity classifier.
type Detector interface {
	Analyze(ctx context.Context, text string) (Verdict, error)
}

// Checker decides whether a text may stay published.
type Checker interface {
	Moderate(ctx context.Context, text string) Result
}

// Moderator runs the lexical filter and, when configured, an external
// detector. Detector errors and timeouts fail open.
type Moderator struct {
	filter   *Filter
	detector Detector
	timeout  time.Duration
	log      *zap.Logger
}

// NewModerator builds a moderator. detector may be nil.
func NewModerator(filter *Filter, detector Detector, timeout time.Duration, logger *zap.Logger) *Moderator {
	if filter == nil {
		filter = NewFilter(DefaultMinConfidence)
	}
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Moderator{filter: filter, detector: detector, timeout: timeout, log: logger}
}

// Filter exposes the lexical filter for synchronous field checks.
func (m *Moderator) Filter() *Filter { return m.filter }

// Moderate returns the combined verdict for text.
func (m *Moderator) Moderate(ctx context.Context, text string) Result {
	res := m.filter.Check(text)
	if !res.Valid {
		metrics.ModerationChecks.WithLabelValues("flagged").Inc()
		return res
	}
	if m.detector == nil {
		metrics.ModerationChecks.WithLabelValues("clean").Inc()
		return res
	}

	dctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	v, err := m.detector.Analyze(dctx, text)
	if err != nil {
		metrics.ModerationChecks.WithLabelValues("error").Inc()
		m.log.Warn("toxicity detector failed; allowing content", zap.Error(err))
		return res
	}
	if v.Toxic {
		metrics.ModerationChecks.WithLabelValues("flagged").Inc()
		return Result{
			Valid:      false,
			Message:    fmt.Sprintf("Your message was flagged for %s. Please revise your content.", v.Attribute),
			Confidence: v.Score,
			Matches:    []string{v.Attribute},
		}
	}
	metrics.ModerationChecks.WithLabelValues("clean").Inc()
	return res
}
