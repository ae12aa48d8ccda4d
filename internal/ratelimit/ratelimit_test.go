package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

func TestWait_SameATS_EnforcesMinDelay(t *testing.T) {
	limiter := NewATSRateLimiter(100*time.Millisecond, nil)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentATS_NoCrossBlocking(t *testing.T) {
	limiter := NewATSRateLimiter(200*time.Millisecond, nil)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "lever"); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_Override(t *testing.T) {
	limiter := NewATSRateLimiter(5*time.Second, map[string]time.Duration{"workday": 0})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "workday"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected override to disable waiting, took %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewATSRateLimiter(5*time.Second, nil)

	// First call to consume the token.
	if err := limiter.Wait(context.Background(), "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "greenhouse"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingSource struct {
	listed   int
	detailed int
}

func (s *recordingSource) Company() string { return "acme" }

func (s *recordingSource) ListPostings(_ context.Context) ([]model.Posting, error) {
	s.listed++
	return nil, nil
}

func (s *recordingSource) FetchDetail(_ context.Context, p model.Posting) (model.Posting, error) {
	s.detailed++
	p.Description = "d"
	return p, nil
}

func TestRateLimitedSource_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewATSRateLimiter(100*time.Millisecond, nil)
	inner := &recordingSource{}
	src := NewRateLimitedSource(inner, limiter, "greenhouse")
	ctx := context.Background()

	if _, err := src.ListPostings(ctx); err != nil {
		t.Fatalf("first list: %v", err)
	}

	// The detail call shares the ATS budget with the listing.
	start := time.Now()
	p, err := src.FetchDetail(ctx, model.Posting{Link: "l"})
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait before detail, got %v", elapsed)
	}
	if inner.listed != 1 || inner.detailed != 1 || p.Description != "d" {
		t.Errorf("unexpected delegation: listed=%d detailed=%d", inner.listed, inner.detailed)
	}
	if src.Company() != "acme" {
		t.Errorf("company = %q", src.Company())
	}
}
