package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs the job every six hours.
const DefaultSpec = "@every 6h"

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job once immediately and then on a cron schedule.
// A tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	spec   string
	job    Job
	logger *slog.Logger
}

// NewScheduler creates a scheduler for job. spec accepts standard five-field
// cron expressions and descriptors such as "@every 6h" or "@daily".
func NewScheduler(spec string, job Job, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{spec: spec, job: job, logger: logger}
}

// Validate reports whether spec parses.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run starts the schedule and blocks until ctx is cancelled. It returns nil
// on graceful shutdown, after any in-flight run has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := c.AddFunc(s.spec, func() { s.runJob(ctx) })
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec)
	c.Start()

	// Run one immediate cycle through the same chain so it cannot overlap a tick.
	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		c.Entry(id).WrappedJob.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	first.Wait()
	return nil
}

func (s *Scheduler) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
