package adapter

import (
	"context"
	"fmt"
	"time"

	"sift/internal/logging"
	"sift/internal/screen"
)

// Retry wraps an adapter with the run's timeout and retry budget. Each
// attempt gets its own deadline; backoff doubles between attempts. When the
// budget is exhausted the last error surfaces to the orchestrator, which
// records it as an ERROR vote — failure is ordinary data downstream.
type Retry struct {
	inner       screen.Invoker
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
}

// WithRetry applies cfg's retry policy to an adapter.
func WithRetry(inner screen.Invoker, cfg screen.RunConfig) *Retry {
	return &Retry{
		inner:       inner,
		maxAttempts: cfg.Retries + 1,
		backoff:     cfg.RetryBackoff,
		timeout:     cfg.Timeout,
	}
}

func (r *Retry) Invoke(ctx context.Context, req screen.InvokeRequest) (screen.ModelVote, error) {
	logger := logging.New("adapter")
	start := time.Now()
	backoff := r.backoff
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if r.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		vote, err := r.inner.Invoke(callCtx, req)
		cancel()

		if err == nil {
			vote.Attempts = attempt
			vote.Latency = time.Since(start)
			return vote, nil
		}
		lastErr = err
		if attempt < r.maxAttempts {
			logger.Debug("model call retry",
				"model", req.ModelID, "record_id", req.Record.ID,
				"attempt", attempt, "backoff", backoff, "error", err)
			if err := sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
			backoff *= 2
		}
	}
	return screen.ModelVote{}, fmt.Errorf("model %s: %d attempt(s) failed: %w",
		req.ModelID, r.maxAttempts, lastErr)
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
