// Package timeouts holds the context deadlines used by handlers, the
// reconcile worker and the CLI.
//
//   - Ping: health checks
//   - Short: single-document reads, moderation checks, lease calls
//   - Medium: list queries and simple writes
//   - Long: writes touching several collections (group delete cascade)
//   - Batch: one reconciliation pass
//
// Values come from the timeout_* config keys via Configure at startup.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config is a full set of deadlines. Zero fields mean "keep the current value".
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overlays the positive fields of cfg onto the current values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	overlay(&current.Ping, cfg.Ping)
	overlay(&current.Short, cfg.Short)
	overlay(&current.Medium, cfg.Medium)
	overlay(&current.Long, cfg.Long)
	overlay(&current.Batch, cfg.Batch)
}

func overlay(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns a copy of the active values.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Fields renders the active values for a startup log line.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.Duration("timeout_ping", c.Ping),
		zap.Duration("timeout_short", c.Short),
		zap.Duration("timeout_medium", c.Medium),
		zap.Duration("timeout_long", c.Long),
		zap.Duration("timeout_batch", c.Batch),
	}
}

// WithTimeout derives a context with the given deadline. Its cancel func logs
// a warning naming operation when the deadline was what ended the context.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "group delete cascade")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
