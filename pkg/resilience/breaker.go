// Package resilience keeps optional backends from degrading search: a
// breaker that stops calling a backend after repeated failures, and a
// jittered exponential retry for establishing connections.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("breaker open")

// State is the phase of a Breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when a Breaker trips and how it recovers.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before admitting trials.
	Cooldown time.Duration
	// Trials is the number of calls admitted while half-open.
	Trials int
}

// Breaker counts consecutive failures of a backend. Once Threshold is
// reached it rejects calls with ErrOpen until Cooldown has passed, then
// admits up to Trials calls; one success closes it again, one failure
// reopens it.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trials   int
}

// NewBreaker returns a closed Breaker. Zero config values take defaults of
// 5 failures, a 30s cooldown and a single trial.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Trials <= 0 {
		cfg.Trials = 1
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "breaker", "backend", name),
	}
}

// Do runs fn unless the breaker is open and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

// State reports the current phase, promoting Open to HalfOpen once the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry in %v)", ErrOpen, b.name, wait.Round(time.Millisecond))
		}
		b.state = HalfOpen
		b.trials = 0
		b.logger.Info("breaker half-open", "cooldown", b.cfg.Cooldown)
		fallthrough
	case HalfOpen:
		if b.trials >= b.cfg.Trials {
			return fmt.Errorf("%w: %s (trial in flight)", ErrOpen, b.name)
		}
		b.trials++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		if b.state == HalfOpen {
			b.logger.Info("breaker closed")
		}
		b.state = Closed
		b.failures = 0
		b.trials = 0
		return
	}
	b.failures++
	switch {
	case b.state == HalfOpen:
		b.trip()
	case b.state == Closed && b.failures >= b.cfg.Threshold:
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.logger.Warn("breaker opened", "consecutive_failures", b.failures, "cooldown", b.cfg.Cooldown)
}
