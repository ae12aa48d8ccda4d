package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ImmediateRunThenCancel(t *testing.T) {
	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}
	s := NewScheduler("@every 1h", job, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("job calls = %d, want 1 (immediate run only)", got)
	}
}

func TestRun_TicksOnSchedule(t *testing.T) {
	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("errors are logged, not fatal")
	}
	s := NewScheduler("@every 1s", job, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(2500 * time.Millisecond)
	cancel()
	<-done

	if got := calls.Load(); got < 2 {
		t.Errorf("job calls = %d, want >= 2", got)
	}
}

func TestRun_SkipsOverlappingRuns(t *testing.T) {
	var running, overlaps atomic.Int32
	job := func(ctx context.Context) error {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		defer running.Add(-1)
		time.Sleep(1500 * time.Millisecond)
		return nil
	}
	s := NewScheduler("@every 1s", job, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(2200 * time.Millisecond)
	cancel()
	<-done

	if got := overlaps.Load(); got != 0 {
		t.Errorf("observed %d overlapping runs", got)
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	s := NewScheduler("not a schedule", func(context.Context) error { return nil }, discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestValidate(t *testing.T) {
	for _, spec := range []string{"@every 6h", "@daily", "0 9 * * 1-5"} {
		if err := Validate(spec); err != nil {
			t.Errorf("Validate(%q) = %v", spec, err)
		}
	}
	if err := Validate("every six hours"); err == nil {
		t.Error("expected error for invalid spec")
	}
}
