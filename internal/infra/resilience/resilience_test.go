package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func TestRetryWithBackoff(t *testing.T) {
	errUnavailable := errors.New("store unavailable")

	tests := []struct {
		name      string
		cfg       resilience.Config
		failures  int
		fail      error
		wantCalls int
		wantErr   error
	}{
		{"first try", resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, 0, nil, 1, nil},
		{"recovers", resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, 2, errUnavailable, 3, nil},
		{"exhausted", resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}, 10, errUnavailable, 3, errUnavailable},
		{"version conflict with zero backoff", resilience.Config{MaxRetries: 4}, 10, port.ErrConflict, 5, port.ErrConflict},
		{"no retries", resilience.Config{}, 10, errUnavailable, 1, errUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := resilience.RetryWithBackoff(context.Background(), tc.cfg, func() error {
				calls++
				if calls <= tc.failures {
					return tc.fail
				}
				return nil
			})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
		})
	}
}

func TestRetryWithBackoff_RespectsContext(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		calls++
		return errors.New("error")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls on a dead context, got %d", calls)
	}
}

func TestRetryWithBackoff_StopsOnPermanent(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return resilience.Permanent(port.ErrDuplicate)
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, port.ErrDuplicate) {
		t.Fatalf("expected wrapped ErrDuplicate, got %v", err)
	}
	if !resilience.IsPermanent(err) {
		t.Fatal("expected permanent marker to survive")
	}
	if resilience.Unwrap(err) != port.ErrDuplicate {
		t.Fatal("Unwrap should strip the marker")
	}
	if resilience.Permanent(nil) != nil {
		t.Fatal("Permanent(nil) should be nil")
	}
}

func TestConfig_Backoff(t *testing.T) {
	cfg := resilience.Config{InitialBackoff: 5 * time.Millisecond}
	want := []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, w := range want {
		if got := cfg.Backoff(i); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestBulkhead_CapsConcurrency(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("expected timeout on third acquire")
	}

	bh.Release()
	var ran atomic.Bool
	if err := bh.Do(context.Background(), func() error { ran.Store(true); return nil }); err != nil {
		t.Fatalf("expected Do after release, got %v", err)
	}
	if !ran.Load() {
		t.Fatal("expected fn to run")
	}
}

func TestCircuitBreaker_IgnoresPermanentErrors(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test", zap.NewNop())

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (any, error) {
			return nil, resilience.Permanent(port.ErrNotFound)
		})
	}
	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %s", cb.State())
	}

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (any, error) {
			return nil, errors.New("connection refused")
		})
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}
}
