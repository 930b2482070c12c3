// internal/app/system/moderation/pool.go
package moderation

import (
	"context"
	"sync"

	"github.com/melbminds/studyhub/internal/app/system/metrics"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for the moderation pool.
const (
	DefaultWorkers = 4
	DefaultQueue   = 256
)

// Deleter removes content that failed moderation.
type Deleter interface {
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Job is one published item awaiting moderation.
type Job struct {
	ID      primitive.ObjectID
	GroupID primitive.ObjectID
	Text    string
}

// Pool moderates already-stored messages in the background and deletes the
// ones that are flagged. Submit never blocks.
type Pool struct {
	checker Checker
	deleter Deleter
	log     *zap.Logger

	jobs    chan Job
	pending sync.WaitGroup
	group   *errgroup.Group
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewPool starts workers goroutines reading from a queue of the given size.
func NewPool(checker Checker, deleter Deleter, workers, queue int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queue <= 0 {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		checker: checker,
		deleter: deleter,
		log:     logger,
		jobs:    make(chan Job, queue),
		group:   new(errgroup.Group),
	}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for job := range p.jobs {
				p.handle(job)
				p.pending.Done()
			}
			return nil
		})
	}
	return p
}

// Submit enqueues a job. It returns false when the queue is full or the pool
// is stopped; the content then stays published.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		metrics.ModerationRejected.Inc()
		return false
	}
	p.pending.Add(1)
	select {
	case p.jobs <- job:
		return true
	default:
		p.pending.Done()
		metrics.ModerationRejected.Inc()
		return false
	}
}

// Wait blocks until every accepted job has been handled.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop drains the queue and stops the workers. Safe to call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
		_ = p.group.Wait()
	})
}

func (p *Pool) handle(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	res := p.checker.Moderate(ctx, job.Text)
	if res.Valid {
		return
	}
	if err := p.deleter.Delete(ctx, job.ID); err != nil {
		p.log.Error("failed to delete flagged message",
			zap.String("message_id", job.ID.Hex()),
			zap.String("group_id", job.GroupID.Hex()),
			zap.Error(err))
		return
	}
	metrics.ModerationDeleted.Inc()
	p.log.Info("removed flagged message",
		zap.String("message_id", job.ID.Hex()),
		zap.String("group_id", job.GroupID.Hex()),
		zap.Strings("matches", res.Matches),
		zap.Float64("confidence", res.Confidence))
}
