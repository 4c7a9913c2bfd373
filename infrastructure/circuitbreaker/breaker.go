// Package circuitbreaker guards calls to a flaky dependency.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without calling fn while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until Timeout elapses.
	StateOpen
	// StateHalfOpen lets a single probe through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it.
	SuccessThreshold int
	// Timeout is how long the circuit stays open.
	Timeout time.Duration
	// OnStateChange is called with the lock held; it must not call back into the breaker.
	OnStateChange func(from, to State)
}

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 1
	defaultTimeout          = 30 * time.Second
)

// Breaker is safe for concurrent use.
type Breaker struct {
	mu           sync.Mutex
	cfg          Config
	state        State
	failures     int
	successes    int
	openedAt     time.Time
	probeRunning bool
	now          func() time.Time
}

// New returns a closed breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = defaultSuccessThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open. Caller cancellation is not
// counted as a dependency failure.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, err := b.before()
	if err != nil {
		return err
	}

	fnErr := fn()
	b.after(probe, fnErr, ctx.Err() != nil)
	return fnErr
}

func (b *Breaker) before() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		remaining := b.cfg.Timeout - b.now().Sub(b.openedAt)
		if remaining > 0 {
			return false, fmt.Errorf("%w: retry in %v", ErrCircuitOpen, remaining.Round(time.Millisecond))
		}
		b.transition(StateHalfOpen)
	}

	if b.state == StateHalfOpen {
		if b.probeRunning {
			return false, fmt.Errorf("%w: probe in flight", ErrCircuitOpen)
		}
		b.probeRunning = true
		return true, nil
	}

	return false, nil
}

func (b *Breaker) after(probe bool, err error, callerCancelled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probeRunning = false
	}

	if err != nil && callerCancelled {
		return
	}

	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
		return
	}

	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// State returns the current state. An open breaker whose timeout has elapsed
// still reports open until the next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeRunning = false
	b.transition(StateClosed)
}
