//nolint:testpackage // drives the breaker clock directly
package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errStore = errors.New("store unavailable")

func fail() error { return errStore }
func ok() error   { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	for range 2 {
		if err := b.Execute(ctx, fail); !errors.Is(err, errStore) {
			t.Fatalf("Execute() error = %v, want errStore", err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	called := false
	err := b.Execute(ctx, func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn called while circuit open")
	}
}

func TestBreaker_HalfOpenProbeCloses(t *testing.T) {
	t.Parallel()

	var transitions []string
	b := New(Config{
		FailureThreshold: 1,
		Timeout:          time.Second,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), fail)
	now = now.Add(2 * time.Second)

	if err := b.Execute(context.Background(), ok); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, Timeout: time.Second})
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), fail)
	now = now.Add(2 * time.Second)
	_ = b.Execute(context.Background(), fail)

	if b.State() != StateOpen {
		t.Errorf("state = %s, want open", b.State())
	}
}

func TestBreaker_CallerCancellationNotCounted(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())

	_ = b.Execute(ctx, func() error {
		cancel()
		return context.Canceled
	})

	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}
	if err := b.Execute(ctx, ok); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() on cancelled ctx = %v, want context.Canceled", err)
	}
}
