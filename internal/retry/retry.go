package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

// Policy controls how transient failures are retried.
// MaxRetries is the number of additional attempts after the first failure.
// BaseDelay is the delay before the first retry, doubled on each subsequent retry.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *slog.Logger
}

// Do runs fn, retrying transient errors with exponential backoff and jitter.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !isRetryable(err) {
		return v, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		if p.Logger != nil {
			p.Logger.Warn("retrying after transient error",
				"op", op,
				"attempt", attempt,
				"max_retries", p.MaxRetries,
				"delay", delay,
				"error", lastErr,
			)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		v, err = fn(ctx)
		if err == nil || !isRetryable(err) {
			return v, err
		}
		lastErr = err
	}

	var zero T
	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation, never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}

// RetrySource is a decorator that retries transient failures of both the
// listing and the detail fetch of the wrapped source.
type RetrySource struct {
	inner  model.Source
	policy Policy
}

// NewRetrySource wraps a Source with retry logic.
func NewRetrySource(inner model.Source, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:  inner,
		policy: Policy{MaxRetries: maxRetries, BaseDelay: baseDelay, Logger: logger},
	}
}

func (s *RetrySource) Company() string { return s.inner.Company() }

// Unwrap returns the retried source.
func (s *RetrySource) Unwrap() model.Source { return s.inner }

func (s *RetrySource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	return Do(ctx, s.policy, "list "+s.inner.Company(), s.inner.ListPostings)
}

func (s *RetrySource) FetchDetail(ctx context.Context, p model.Posting) (model.Posting, error) {
	if !model.SupportsDetail(s.inner) {
		return p, nil
	}
	return Do(ctx, s.policy, "detail "+s.inner.Company(), func(ctx context.Context) (model.Posting, error) {
		return model.FetchDetail(ctx, s.inner, p)
	})
}

// Completer is the LLM call being retried.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetryCompleter retries transient LLM failures such as 429 and 5xx responses.
type RetryCompleter struct {
	inner  Completer
	policy Policy
}

// NewRetryCompleter wraps an LLM provider with retry logic.
func NewRetryCompleter(inner Completer, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryCompleter {
	return &RetryCompleter{
		inner:  inner,
		policy: Policy{MaxRetries: maxRetries, BaseDelay: baseDelay, Logger: logger},
	}
}

func (c *RetryCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return Do(ctx, c.policy, "llm complete", func(ctx context.Context) (string, error) {
		return c.inner.Complete(ctx, prompt)
	})
}
