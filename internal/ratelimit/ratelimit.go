package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/fitwatch/internal/model"
)

// ATSRateLimiter enforces a minimum delay between requests to the same ATS backend.
type ATSRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter // key: ATS name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewATSRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same ATS provider. overrides replaces minDelay
// for individual ATS names.
func NewATSRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *ATSRateLimiter {
	return &ATSRateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *ATSRateLimiter) limiter(ats string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[ats]
	if !ok {
		delay := r.minDelay
		if d, ok := r.overrides[ats]; ok {
			delay = d
		}
		l = rate.NewLimiter(rate.Every(delay), 1)
		r.limiters[ats] = l
	}
	return l
}

// Wait blocks until the given ATS may be called again.
// Returns an error if the context is cancelled while waiting.
func (r *ATSRateLimiter) Wait(ctx context.Context, ats string) error {
	if err := r.limiter(ats).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", ats, err)
	}
	return nil
}

// RateLimitedSource is a decorator that enforces ATS-level rate limiting
// before delegating listing and detail calls to the wrapped Source.
type RateLimitedSource struct {
	inner   model.Source
	limiter *ATSRateLimiter
	ats     string
}

// NewRateLimitedSource wraps a Source with ATS-level rate limiting.
// All sources targeting the same ATS should share the same limiter instance.
func NewRateLimitedSource(inner model.Source, limiter *ATSRateLimiter, ats string) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
		ats:     ats,
	}
}

func (s *RateLimitedSource) Company() string { return s.inner.Company() }

// Unwrap returns the rate-limited source.
func (s *RateLimitedSource) Unwrap() model.Source { return s.inner }

func (s *RateLimitedSource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	if err := s.limiter.Wait(ctx, s.ats); err != nil {
		return nil, err
	}
	return s.inner.ListPostings(ctx)
}

func (s *RateLimitedSource) FetchDetail(ctx context.Context, p model.Posting) (model.Posting, error) {
	if !model.SupportsDetail(s.inner) {
		return p, nil
	}
	if err := s.limiter.Wait(ctx, s.ats); err != nil {
		return p, err
	}
	return model.FetchDetail(ctx, s.inner, p)
}
