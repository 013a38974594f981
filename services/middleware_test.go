package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) HandlerMiddleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, payload []byte) ([]byte, error) {
				order = append(order, name)
				return next(ctx, payload)
			}
		}
	}

	h := Chain(mk("outer"), mk("middle"), mk("inner"))(func(ctx context.Context, payload []byte) ([]byte, error) {
		order = append(order, "handler")
		return nil, nil
	})

	if _, err := h(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	want := []string{"outer", "middle", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	h := Recovery(testLogger())(func(ctx context.Context, payload []byte) ([]byte, error) {
		panic("boom")
	})

	_, err := h(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error from panic")
	}
	var pe *ErrPanic
	if !errors.As(err, &pe) {
		t.Fatalf("expected ErrPanic, got %T: %v", err, err)
	}
	if pe.Value != "boom" {
		t.Fatalf("got panic value %v, want boom", pe.Value)
	}
}

func TestWithRetry_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	h := WithRetry(3, time.Millisecond, nil)(func(ctx context.Context, payload []byte) ([]byte, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return []byte("ok"), nil
	})

	resp, err := h(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp) != "ok" {
		t.Fatalf("got %q", resp)
	}
	if attempts != 3 {
		t.Fatalf("got %d attempts, want 3", attempts)
	}
}

func TestWithRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	last := errors.New("still down")
	attempts := 0
	h := WithRetry(2, time.Millisecond, nil)(func(ctx context.Context, payload []byte) ([]byte, error) {
		attempts++
		return nil, last
	})

	_, err := h(context.Background(), nil)
	if !errors.Is(err, last) {
		t.Fatalf("got %v, want last error", err)
	}
	if attempts != 3 {
		t.Fatalf("got %d attempts, want 3 (initial + 2 retries)", attempts)
	}
}

func TestWithRetry_NoRetryOnCircuitOpen(t *testing.T) {
	attempts := 0
	h := WithRetry(5, time.Millisecond, nil)(func(ctx context.Context, payload []byte) ([]byte, error) {
		attempts++
		return nil, &ErrCircuitOpen{Service: "generate"}
	})

	_, err := h(context.Background(), nil)
	var co *ErrCircuitOpen
	if !errors.As(err, &co) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("got %d attempts, want 1 (no retry on open circuit)", attempts)
	}
}

func TestWithFallback_UsedOnRemoteFailure(t *testing.T) {
	local := func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte("local"), nil
	}
	h := WithFallback(local, "generate", testLogger())(func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, errors.New("remote down")
	})

	resp, err := h(context.Background(), nil)
	if err != nil {
		t.Fatalf("fallback should absorb the failure: %v", err)
	}
	if string(resp) != "local" {
		t.Fatalf("got %q, want local", resp)
	}
}

func TestWithFallback_SkippedOnSuccess(t *testing.T) {
	local := func(ctx context.Context, payload []byte) ([]byte, error) {
		t.Fatal("local should not run when remote succeeds")
		return nil, nil
	}
	h := WithFallback(local, "generate", testLogger())(func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte("remote"), nil
	})

	resp, err := h(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "remote" {
		t.Fatalf("got %q, want remote", resp)
	}
}

func TestWithFallback_SkippedOnCancelledContext(t *testing.T) {
	local := func(ctx context.Context, payload []byte) ([]byte, error) {
		t.Fatal("local should not run after caller gave up")
		return nil, nil
	}
	h := WithFallback(local, "generate", testLogger())(func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, context.Canceled
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h(ctx, nil); err == nil {
		t.Fatal("expected error to propagate on cancelled context")
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(WithBreakerThreshold(2))

	cb.RecordFailure()
	if cb.State() != BreakerClosed {
		t.Fatal("one failure should not open the breaker")
	}
	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Fatal("breaker should open at threshold")
	}
	if cb.Allow() {
		t.Fatal("open breaker should reject calls")
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(
		WithBreakerThreshold(1),
		WithBreakerResetTimeout(10*time.Second),
		WithBreakerHalfOpenMax(2),
		WithBreakerClock(func() time.Time { return now }),
	)

	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Fatal("breaker should be open")
	}

	now = now.Add(11 * time.Second)
	if !cb.Allow() {
		t.Fatal("breaker should allow a probe after reset timeout")
	}
	if cb.State() != BreakerHalfOpen {
		t.Fatalf("got state %v, want half-open", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != BreakerHalfOpen {
		t.Fatal("one success should keep the breaker half-open")
	}
	cb.RecordSuccess()
	if cb.State() != BreakerClosed {
		t.Fatal("two successes should close the breaker")
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(
		WithBreakerThreshold(1),
		WithBreakerResetTimeout(time.Second),
		WithBreakerClock(func() time.Time { return now }),
	)

	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	if cb.State() != BreakerHalfOpen {
		t.Fatal("breaker should be half-open")
	}
	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Fatal("half-open failure should reopen the breaker")
	}
}

func TestWithCircuitBreaker_RejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker(WithBreakerThreshold(1))
	calls := 0
	h := WithCircuitBreaker(cb, "recommend")(func(ctx context.Context, payload []byte) ([]byte, error) {
		calls++
		return nil, errors.New("down")
	})

	if _, err := h(context.Background(), nil); err == nil {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}

	_, err := h(context.Background(), nil)
	var co *ErrCircuitOpen
	if !errors.As(err, &co) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if co.Service != "recommend" {
		t.Fatalf("got service %q", co.Service)
	}
	if calls != 1 {
		t.Fatalf("open breaker still called the handler: %d calls", calls)
	}
}
