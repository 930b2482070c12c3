// internal/app/system/workers/sessionreconcile.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/melbminds/studyhub/internal/app/system/metrics"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// LockName is the lease that elects the single active reconciler.
const LockName = "session-reconciler"

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Locker hands out expiring named leases.
type Locker interface {
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holder string) error
}

// SessionReconciler is a background worker that periodically converts ended
// study sessions into group progress. Only the instance holding the lease
// runs a pass; the others skip the tick.
type SessionReconciler struct {
	rec      Reconciler
	locks    Locker
	log      *zap.Logger
	interval time.Duration
	lockTTL  time.Duration
	holder   string
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSessionReconciler creates a new reconcile worker.
//
// Parameters:
//   - rec: runs one pass
//   - locks: lease store shared by every instance
//   - logger: zap logger for logging
//   - interval: how often to run a pass (e.g., 1 minute)
//   - lockTTL: lease lifetime; must exceed the longest expected pass
func NewSessionReconciler(rec Reconciler, locks Locker, logger *zap.Logger, interval, lockTTL time.Duration) *SessionReconciler {
	return &SessionReconciler{
		rec:      rec,
		locks:    locks,
		log:      logger,
		interval: interval,
		lockTTL:  lockTTL,
		holder:   uuid.NewString(),
		stopCh:   make(chan struct{}),
	}
}

// Start runs a first pass immediately, then one per interval.
func (w *SessionReconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session reconcile worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("lock_ttl", w.lockTTL),
		zap.String("holder", w.holder))
}

// Stop signals the worker to stop, waits for it to finish and gives up the lease.
func (w *SessionReconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	if err := w.locks.Release(ctx, LockName, w.holder); err != nil {
		w.log.Warn("failed to release reconcile lease", zap.Error(err))
	}
	w.log.Info("session reconcile worker stopped")
}

func (w *SessionReconciler) run() {
	defer w.wg.Done()

	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *SessionReconciler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	ok, err := w.locks.Acquire(ctx, LockName, w.holder, w.lockTTL)
	if err != nil {
		w.log.Error("failed to acquire reconcile lease", zap.Error(err))
		metrics.ReconcilePasses.WithLabelValues("skipped").Inc()
		return
	}
	if !ok {
		w.log.Debug("reconcile lease held by another instance")
		metrics.ReconcilePasses.WithLabelValues("skipped").Inc()
		return
	}

	count, err := w.rec.Reconcile(ctx)
	if err != nil {
		w.log.Error("session reconcile pass failed", zap.Int("processed", count), zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("session reconcile pass finished", zap.Int("processed", count))
	}
}
