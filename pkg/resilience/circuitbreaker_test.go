package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func failing(_ context.Context) error { return errBackend }
func succeeding(_ context.Context) error { return nil }

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Call(ctx, failing); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
	if err := b.Call(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	ctx := context.Background()

	clock := time.Now()
	b.now = func() time.Time { return clock }

	if err := b.Call(ctx, failing); !errors.Is(err, errBackend) {
		t.Fatalf("got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	clock = clock.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}
	if err := b.Call(ctx, succeeding); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe success, got %s", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	ctx := context.Background()

	clock := time.Now()
	b.now = func() time.Time { return clock }

	_ = b.Call(ctx, failing)
	clock = clock.Add(11 * time.Second)

	if err := b.Call(ctx, failing); !errors.Is(err, errBackend) {
		t.Fatalf("got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected reopened, got %s", b.State())
	}
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second, HalfOpenMax: 1})
	ctx := context.Background()

	clock := time.Now()
	b.now = func() time.Time { return clock }

	_ = b.Call(ctx, failing)
	clock = clock.Add(11 * time.Second)

	done := make(chan struct{})
	blocked := func(_ context.Context) error { <-done; return nil }
	go func() { _ = b.Call(ctx, blocked) }()

	// Give the probe goroutine time to claim the half-open slot.
	time.Sleep(20 * time.Millisecond)
	if err := b.Call(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second probe should be rejected, got %v", err)
	}
	close(done)
}

func TestBreakerDefaults(t *testing.T) {
	b := NewBreaker(BreakerOpts{})
	if b.opts.FailThreshold != DefaultBreakerOpts.FailThreshold {
		t.Fatalf("threshold = %d", b.opts.FailThreshold)
	}
	if b.opts.Timeout != DefaultBreakerOpts.Timeout {
		t.Fatalf("timeout = %s", b.opts.Timeout)
	}
	if b.opts.HalfOpenMax != DefaultBreakerOpts.HalfOpenMax {
		t.Fatalf("halfOpenMax = %d", b.opts.HalfOpenMax)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
