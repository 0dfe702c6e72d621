package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Backoff describes a jittered exponential retry schedule.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	Jitter   float64
}

// DefaultBackoff is three attempts starting at 100ms and doubling.
func DefaultBackoff() Backoff {
	return Backoff{
		Attempts: 3,
		Initial:  100 * time.Millisecond,
		Max:      5 * time.Second,
		Factor:   2,
		Jitter:   0.1,
	}
}

func (b Backoff) withDefaults() Backoff {
	d := DefaultBackoff()
	if b.Attempts <= 0 {
		b.Attempts = d.Attempts
	}
	if b.Initial <= 0 {
		b.Initial = d.Initial
	}
	if b.Max <= 0 {
		b.Max = d.Max
	}
	if b.Factor < 1 {
		b.Factor = d.Factor
	}
	if b.Jitter < 0 || b.Jitter >= 1 {
		b.Jitter = d.Jitter
	}
	return b
}

// Delay returns the wait before the given retry (1 is the first retry).
func (b Backoff) Delay(retry int) time.Duration {
	b = b.withDefaults()
	d := float64(b.Initial)
	for i := 1; i < retry && d < float64(b.Max); i++ {
		d *= b.Factor
	}
	d += d * b.Jitter * (2*rand.Float64() - 1)
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, the attempts are exhausted or ctx is
// done. The last error from fn is wrapped in the returned error.
func Retry(ctx context.Context, name string, b Backoff, fn func(ctx context.Context) error) error {
	b = b.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == b.Attempts {
			break
		}
		delay := b.Delay(attempt)
		logger.Warn("attempt failed", "attempt", attempt, "max_attempts", b.Attempts, "error", err, "next_delay", delay)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: retry aborted: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %d attempts failed: %w", name, b.Attempts, err)
}
