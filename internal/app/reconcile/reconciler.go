// Package reconcile turns ended study sessions into durable group progress.
//
// A pass lists every session whose end instant is at or before "now" in the
// reference time zone. Each one is handled in its own unit of work: the
// session is claimed by deleting it, a notification is posted to the group,
// attendee rows are dropped, and the session's duration is credited to the
// group's ledger. A session is never deleted without being credited; if any
// step fails the unit is rolled back (or compensated on servers without
// transactions) and the session stays eligible for the next pass.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/melbminds/studyhub/internal/app/system/metrics"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/melbminds/studyhub/internal/app/reconcile")

// SessionStore is the subset of the session store the reconciler needs.
type SessionStore interface {
	ListPast(ctx context.Context, c timezones.Cutoff) ([]models.StudySession, error)
	Claim(ctx context.Context, id primitive.ObjectID) (bool, error)
	Restore(ctx context.Context, sess models.StudySession) error
	TakeAttendees(ctx context.Context, sessionID primitive.ObjectID) ([]models.SessionAttendee, error)
	RestoreAttendees(ctx context.Context, rows []models.SessionAttendee) error
}

// NotificationSink posts (and, for compensation, withdraws) group notifications.
type NotificationSink interface {
	Create(ctx context.Context, groupID primitive.ObjectID, message string) (models.Notification, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Ledger credits study hours to a group.
type Ledger interface {
	AddHours(ctx context.Context, groupID primitive.ObjectID, hours float64) error
}

// Counter is the global completed-sessions counter.
type Counter interface {
	Increment(ctx context.Context, n int64) (int64, error)
}

// UnitOfWork runs fn atomically. fn must use the ctx it receives.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps are the collaborators of a Reconciler. All fields are required
// except Log.
type Deps struct {
	Sessions      SessionStore
	Notifications NotificationSink
	Ledger        Ledger
	Counter       Counter
	Tx            UnitOfWork
	Clock         *timezones.Reference
	Log           *zap.Logger
}

// Reconciler converts ended sessions into ledger credit. Passes are
// serialized within a process; across processes each session is claimed by a
// conditional delete, so two reconcilers never credit the same session.
type Reconciler struct {
	d   Deps
	log *zap.Logger

	mu      sync.Mutex   // serializes passes
	pending atomic.Int64 // processed sessions not yet added to Counter
}

// New builds a Reconciler.
func New(d Deps) (*Reconciler, error) {
	switch {
	case d.Sessions == nil:
		return nil, errors.New("reconcile: session store is required")
	case d.Notifications == nil:
		return nil, errors.New("reconcile: notification sink is required")
	case d.Ledger == nil:
		return nil, errors.New("reconcile: ledger is required")
	case d.Counter == nil:
		return nil, errors.New("reconcile: counter is required")
	case d.Tx == nil:
		return nil, errors.New("reconcile: unit of work is required")
	case d.Clock == nil:
		return nil, errors.New("reconcile: clock is required")
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{d: d, log: log}, nil
}

// outcome of one session's unit of work.
type outcome int

const (
	processed outcome = iota
	claimLost
	failed
	invalid
)

// Reconcile runs one pass and returns how many sessions it processed.
// Per-session failures are logged and left for the next pass; the returned
// error is reserved for failures that stop the whole pass.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	defer func() { metrics.PassDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := r.d.Clock.Cutoff()
	ctx, span := tracer.Start(ctx, "reconcile.pass")
	defer span.End()
	span.SetAttributes(attribute.String("cutoff.date", cutoff.Date), attribute.String("cutoff.time", cutoff.Time))

	past, err := r.d.Sessions.ListPast(ctx, cutoff)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "list past sessions")
		return 0, fmt.Errorf("list past sessions: %w", err)
	}
	span.SetAttributes(attribute.Int("candidates", len(past)))

	n := 0
	var stopErr error
	for _, sess := range past {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		// The listing is only as fresh as the query; re-check against the
		// same cutoff so a stale or widened result never credits early.
		if !cutoff.IsPast(sess.Date, sess.EndTime) {
			continue
		}
		switch r.reconcileOne(ctx, sess) {
		case processed:
			n++
		case claimLost:
			metrics.ClaimsLost.Inc()
		}
	}

	r.flushCounter(context.WithoutCancel(ctx), int64(n))
	span.SetAttributes(attribute.Int("processed", n))

	if stopErr != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		span.RecordError(stopErr)
		span.SetStatus(codes.Error, "pass interrupted")
		return n, stopErr
	}
	metrics.ReconcilePasses.WithLabelValues("ok").Inc()
	if n > 0 {
		r.log.Info("reconciled past sessions",
			zap.Int("processed", n),
			zap.Duration("duration", time.Since(start)))
	}
	return n, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, sess models.StudySession) outcome {
	log := r.log.With(
		zap.String("session_id", sess.ID.Hex()),
		zap.String("group_id", sess.GroupID.Hex()))

	if err := sess.Validate(); err != nil {
		log.Warn("skipping session with invalid schedule", zap.Error(err))
		metrics.SessionFailures.WithLabelValues("invalid").Inc()
		return invalid
	}
	hours, err := sess.DurationHours(r.d.Clock.Location())
	if err != nil {
		log.Warn("skipping session with invalid schedule", zap.Error(err))
		metrics.SessionFailures.WithLabelValues("invalid").Inc()
		return invalid
	}

	// Effects of the current attempt, reset on every (re)try of the unit.
	var (
		claimed   bool
		note      *models.Notification
		attendees []models.SessionAttendee
	)

	err = r.d.Tx.Run(ctx, func(ctx context.Context) error {
		claimed, note, attendees = false, nil, nil

		ok, err := r.d.Sessions.Claim(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		if !ok {
			return nil
		}
		claimed = true

		n, err := r.d.Notifications.Create(ctx, sess.GroupID, NotificationMessage(sess, hours))
		if err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		note = &n

		attendees, err = r.d.Sessions.TakeAttendees(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("remove attendees: %w", err)
		}

		if err := r.d.Ledger.AddHours(ctx, sess.GroupID, hours); err != nil {
			return fmt.Errorf("credit ledger: %w", err)
		}
		return nil
	})

	if err != nil {
		r.compensate(context.WithoutCancel(ctx), log, sess, claimed, note, attendees)
		log.Error("session reconcile failed; will retry", zap.Error(err))
		metrics.SessionFailures.WithLabelValues("error").Inc()
		return failed
	}
	if !claimed {
		log.Debug("session already claimed by another reconciler")
		return claimLost
	}

	metrics.SessionsReconciled.Inc()
	metrics.HoursCredited.Add(hours)
	log.Debug("session reconciled", zap.Float64("hours", hours))
	return processed
}

// compensate undoes a failed unit. After a rolled-back transaction every
// step is a no-op: the session and attendees still exist and the
// notification was never committed.
func (r *Reconciler) compensate(ctx context.Context, log *zap.Logger, sess models.StudySession,
	claimed bool, note *models.Notification, attendees []models.SessionAttendee) {

	if note != nil {
		if err := r.d.Notifications.Delete(ctx, note.ID); err != nil {
			log.Error("compensation: delete notification failed",
				zap.String("notification_id", note.ID.Hex()), zap.Error(err))
		}
	}
	if !claimed {
		return
	}
	if err := r.d.Sessions.Restore(ctx, sess); err != nil {
		log.Error("compensation: restore session failed", zap.Error(err))
	}
	if err := r.d.Sessions.RestoreAttendees(ctx, attendees); err != nil {
		log.Error("compensation: restore attendees failed", zap.Error(err))
	}
}

// flushCounter adds this pass's count plus any earlier unflushed amount to
// the global counter in one call. On failure the total is carried over.
func (r *Reconciler) flushCounter(ctx context.Context, n int64) {
	delta := r.pending.Load() + n
	if delta == 0 {
		return
	}
	if _, err := r.d.Counter.Increment(ctx, delta); err != nil {
		r.pending.Store(delta)
		metrics.PendingCounterDelta.Set(float64(delta))
		r.log.Error("completed-session counter update failed; carrying delta",
			zap.Int64("pending", delta), zap.Error(err))
		return
	}
	r.pending.Store(0)
	metrics.PendingCounterDelta.Set(0)
}

// Pending returns the completed-session count not yet written to the counter.
// It does not wait for a running pass.
func (r *Reconciler) Pending() int64 {
	return r.pending.Load()
}

// NotificationMessage renders the notice posted when a session is reconciled.
func NotificationMessage(sess models.StudySession, hours float64) string {
	return fmt.Sprintf("Study session at %s on %s from %s to %s has ended. %s hour(s) added to group progress.",
		sess.Location, sess.Date, hhmm(sess.StartTime), hhmm(sess.EndTime), FormatHours(hours))
}

// FormatHours renders hours with at most two decimals and no trailing zeros.
func FormatHours(h float64) string {
	return strconv.FormatFloat(round2(h), 'f', -1, 64)
}

func hhmm(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
