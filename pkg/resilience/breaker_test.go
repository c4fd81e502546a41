package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFail = errors.New("fail")

func fail(context.Context) error { return errFail }
func ok(context.Context) error   { return nil }

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Minute})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := b.Call(ctx, fail); !errors.Is(err, errFail) {
			t.Fatalf("call %d: expected downstream error, got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}
	called := false
	err := b.Call(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("expected rejection without call, got err=%v called=%v", err, called)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2})
	ctx := context.Background()
	_ = b.Call(ctx, fail)
	_ = b.Call(ctx, ok)
	_ = b.Call(ctx, fail)
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Now()
	var changes []string
	b := NewBreaker(BreakerOpts{
		FailThreshold: 1,
		Cooldown:      time.Second,
		OnStateChange: func(from, to State) { changes = append(changes, from.String()+">"+to.String()) },
	})
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Call(ctx, fail)
	now = now.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}
	if err := b.Call(ctx, ok); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe, got %v", b.State())
	}

	want := []string{"closed>open", "open>half-open", "half-open>closed"}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("changes = %v, want %v", changes, want)
		}
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Call(ctx, fail)
	now = now.Add(2 * time.Second)
	_ = b.Call(ctx, fail)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Second, Probes: 1})
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Call(ctx, fail)
	now = now.Add(2 * time.Second)

	admitted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Call(ctx, func(context.Context) error {
			close(admitted)
			<-release
			return nil
		})
	}()
	<-admitted
	if err := b.Call(ctx, ok); !errors.Is(err, ErrOpen) {
		t.Fatalf("second probe should be rejected, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestCancelledContextNotCounted(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Call(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("cancellation should not trip the breaker, got %v", b.State())
	}
}

func TestCancelledProbeReleasesSlot(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Second, Probes: 1})
	b.now = func() time.Time { return now }

	_ = b.Call(context.Background(), fail)
	now = now.Add(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = b.Call(ctx, func(ctx context.Context) error { return ctx.Err() })
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}
	if err := b.Call(context.Background(), ok); err != nil {
		t.Fatalf("probe slot not released: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("%d: %s", s, s.String())
		}
	}
}

func TestNewBreakerDefaults(t *testing.T) {
	b := NewBreaker(BreakerOpts{})
	if b.opts.FailThreshold != 5 || b.opts.Cooldown != 30*time.Second || b.opts.Probes != 1 {
		t.Fatalf("defaults not applied: %+v", b.opts)
	}
}
