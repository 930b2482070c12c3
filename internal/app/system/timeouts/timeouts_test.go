package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second, Batch: 3 * time.Minute})

	if got := Short(); got != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", got)
	}
	if got := Batch(); got != 3*time.Minute {
		t.Errorf("Batch() = %v, want 3m", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, DefaultMedium)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Millisecond, Long: time.Millisecond})
	Reset()

	cur := Current()
	if cur.Ping != DefaultPing || cur.Long != DefaultLong {
		t.Errorf("Reset did not restore defaults: %+v", cur)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want deadline exceeded", ctx.Err())
	}
}

func TestConfig_Fields(t *testing.T) {
	t.Cleanup(Reset)
	Configure(Config{Batch: 90 * time.Second})

	fields := Current().Fields()
	if len(fields) != 5 {
		t.Fatalf("got %d fields, want 5", len(fields))
	}
	last := fields[4]
	if last.Key != "timeout_batch" || time.Duration(last.Integer) != 90*time.Second {
		t.Errorf("batch field = %s=%v", last.Key, time.Duration(last.Integer))
	}
}
