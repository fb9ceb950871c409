package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sift/internal/screen"
)

func retryConfig(retries int) screen.RunConfig {
	cfg := screen.DefaultRunConfig()
	cfg.Retries = retries
	cfg.RetryBackoff = time.Millisecond
	cfg.Timeout = 50 * time.Millisecond
	return cfg
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	inner := Func(func(_ context.Context, _ screen.InvokeRequest) (screen.ModelVote, error) {
		calls++
		if calls < 3 {
			return screen.ModelVote{}, errors.New("transient")
		}
		return screen.ModelVote{Decision: screen.VoteInclude, Confidence: 0.8}, nil
	})

	r := WithRetry(inner, retryConfig(2))
	vote, err := r.Invoke(context.Background(), screen.InvokeRequest{ModelID: "m1"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if vote.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", vote.Attempts)
	}
	if vote.Decision != screen.VoteInclude {
		t.Errorf("decision = %s, want INCLUDE", vote.Decision)
	}
}

func TestRetry_BudgetExhausted(t *testing.T) {
	calls := 0
	inner := Func(func(_ context.Context, _ screen.InvokeRequest) (screen.ModelVote, error) {
		calls++
		return screen.ModelVote{}, errors.New("unavailable")
	})

	r := WithRetry(inner, retryConfig(2))
	_, err := r.Invoke(context.Background(), screen.InvokeRequest{ModelID: "m1"})
	if err == nil {
		t.Fatal("expected error after exhausted budget")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want retries+1 = 3", calls)
	}
	if !strings.Contains(err.Error(), "3 attempt(s)") {
		t.Errorf("error %q should report the attempt count", err)
	}
}

func TestRetry_PerAttemptTimeout(t *testing.T) {
	inner := Func(func(ctx context.Context, _ screen.InvokeRequest) (screen.ModelVote, error) {
		<-ctx.Done()
		return screen.ModelVote{}, ctx.Err()
	})

	cfg := retryConfig(0)
	cfg.Timeout = 5 * time.Millisecond
	r := WithRetry(inner, cfg)
	_, err := r.Invoke(context.Background(), screen.InvokeRequest{ModelID: "m1"})
	if err == nil {
		t.Fatal("expected deadline error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want wrapped DeadlineExceeded", err)
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := Func(func(_ context.Context, _ screen.InvokeRequest) (screen.ModelVote, error) {
		cancel() // fail once, then cancel so the backoff sleep aborts
		return screen.ModelVote{}, errors.New("transient")
	})

	cfg := retryConfig(5)
	cfg.RetryBackoff = time.Minute
	r := WithRetry(inner, cfg)

	done := make(chan error, 1)
	go func() {
		_, err := r.Invoke(ctx, screen.InvokeRequest{ModelID: "m1"})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want wrapped context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not abort its backoff sleep on cancellation")
	}
}

func TestRegistryWire(t *testing.T) {
	cfg := retryConfig(1)
	cfg.Models = []screen.ModelConfig{{ID: "m1"}, {ID: "m2"}}

	reg := NewRegistry()
	reg.Register("m1", NewStubVoter("m1"))

	if _, err := reg.Wire(cfg); err == nil {
		t.Error("expected error for unregistered model m2")
	}

	reg.Register("m2", NewStubVoter("m2"))
	invokers, err := reg.Wire(cfg)
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	if len(invokers) != 2 {
		t.Fatalf("invokers = %d, want 2", len(invokers))
	}
	for id, inv := range invokers {
		if _, ok := inv.(*Retry); !ok {
			t.Errorf("invoker %s not wrapped with retry policy", id)
		}
	}
}
