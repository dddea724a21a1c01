package llm

import (
	"context"
	"errors"
	"time"
)

// WithRetry wraps a Generator with simple linear-backoff retries. Only
// *RequestError is retried: an unreachable backend will not come back
// between attempts, and retrying it just delays the operator-facing error.
func WithRetry(g Generator, attempts int, backoff time.Duration) Generator {
	if attempts < 1 {
		attempts = 1
	}
	return &retryGenerator{inner: g, attempts: attempts, backoff: backoff}
}

type retryGenerator struct {
	inner    Generator
	attempts int
	backoff  time.Duration
}

func (r *retryGenerator) Backend() string { return r.inner.Backend() }

func (r *retryGenerator) Generate(ctx context.Context, req GenerateRequest) (*Completion, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		comp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return comp, nil
		}
		lastErr = err

		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			return nil, err
		}
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return nil, lastErr
}
