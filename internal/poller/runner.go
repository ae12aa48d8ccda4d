package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/fitwatch/internal/enrich"
	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/reconcile"
	"github.com/amishk599/fitwatch/internal/store"
)

// RunRecorder keeps a history of runs. Implemented by the SQLite persister.
type RunRecorder interface {
	RecordRun(ctx context.Context, r store.Run) error
}

// Enricher scores un-enriched postings. Implemented by *enrich.Pipeline.
type Enricher interface {
	Run(ctx context.Context, s *store.Store, resume string, opts enrich.Options) (enrich.Result, error)
}

// Summary counts what one run did.
type Summary struct {
	RunID     string
	Companies int
	Failed    int // companies whose refresh errored
	Guarded   int // companies skipped by the empty-scrape guard
	Added     int
	Updated   int
	Removed   int
	Enrich    enrich.Result
	// SaveErrors counts failed saves of the store after scraping. Batch
	// save failures during enrichment are in Enrich.SaveErrors.
	SaveErrors int
	// Store is the in-memory result of the run. It may hold progress that
	// could not be saved.
	Store *store.Store
}

// Runner refreshes every company into the store, saves it, and optionally
// enriches new postings afterwards.
type Runner struct {
	pollers   []*CompanyPoller
	persister store.Persister
	logger    *slog.Logger

	enricher   Enricher
	resume     string
	enrichOpts enrich.Options
	recorder   RunRecorder

	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner that only scrapes. Use WithEnrichment and
// WithRecorder to extend it.
func NewRunner(pollers []*CompanyPoller, persister store.Persister, logger *slog.Logger) *Runner {
	return &Runner{
		pollers:   pollers,
		persister: persister,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithEnrichment makes RunOnce score postings after scraping.
func (r *Runner) WithEnrichment(e Enricher, resume string, opts enrich.Options) *Runner {
	r.enricher = e
	r.resume = resume
	r.enrichOpts = opts
	return r
}

// WithRecorder makes RunOnce record each run.
func (r *Runner) WithRecorder(rec RunRecorder) *Runner {
	r.recorder = rec
	return r
}

// RunOnce loads the store, refreshes every company, saves, enriches and
// records the run. Per-company and save failures are logged and counted;
// only a load failure or cancellation is returned.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: r.newID(), Companies: len(r.pollers)}
	logger := r.logger.With("run_id", sum.RunID)
	started := r.now()

	s, err := r.persister.Load(ctx)
	if err != nil {
		return sum, fmt.Errorf("loading store: %w", err)
	}

	sum.Store = s

	r.Scrape(ctx, s, logger, &sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	if err := r.persister.Save(ctx, s); err != nil {
		sum.SaveErrors++
		logger.Warn("saving store failed, progress may be lost", "error", err)
	}

	if r.enricher != nil {
		res, err := r.enricher.Run(ctx, s, r.resume, r.enrichOpts)
		sum.Enrich = res
		if err != nil {
			logger.Error("enrichment stopped", "error", err)
		}
	}

	if r.recorder != nil {
		run := store.Run{
			ID:         sum.RunID,
			StartedAt:  started,
			FinishedAt: r.now(),
			Added:      sum.Added,
			Removed:    sum.Removed,
			Enriched:   sum.Enrich.Enriched,
		}
		if err := r.recorder.RecordRun(ctx, run); err != nil {
			logger.Warn("recording run failed", "error", err)
		}
	}

	logger.Info("run complete",
		"companies", sum.Companies,
		"failed", sum.Failed,
		"guarded", sum.Guarded,
		"added", sum.Added,
		"removed", sum.Removed,
		"enriched", sum.Enrich.Enriched,
		"save_errors", sum.SaveErrors+sum.Enrich.SaveErrors,
	)
	return sum, nil
}

type fetchResult struct {
	postings []model.Posting
	err      error
}

// Scrape refreshes every company into s. Listings are fetched concurrently,
// one goroutine per ATS so each backend sees sequential requests; the store
// is only touched from the calling goroutine, in poller order.
func (r *Runner) Scrape(ctx context.Context, s *store.Store, logger *slog.Logger, sum *Summary) {
	results := make([]fetchResult, len(r.pollers))

	var g errgroup.Group
	for _, group := range groupByATS(r.pollers) {
		group := group
		g.Go(func() error {
			for _, i := range group {
				if ctx.Err() != nil {
					results[i].err = ctx.Err()
					continue
				}
				postings, err := r.pollers[i].Fetch(ctx)
				results[i] = fetchResult{postings: postings, err: err}
			}
			return nil
		})
	}
	g.Wait()

	for i, p := range r.pollers {
		if ctx.Err() != nil {
			return
		}
		if err := results[i].err; err != nil {
			sum.Failed++
			logger.Error("refresh failed", "company", p.Name, "error", err)
			continue
		}

		res, err := p.Apply(ctx, s, results[i].postings)
		switch {
		case errors.Is(err, reconcile.ErrEmptyScrape):
			sum.Guarded++
			logger.Warn("empty scrape, keeping cached postings", "company", p.Name)
			continue
		case err != nil:
			sum.Failed++
			logger.Error("refresh failed", "company", p.Name, "error", err)
			continue
		}
		sum.Added += len(res.Added)
		sum.Updated += len(res.Updated)
		sum.Removed += len(res.Removed)
	}
}

// groupByATS returns poller indexes grouped by ATS, in first-seen order.
func groupByATS(pollers []*CompanyPoller) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, p := range pollers {
		g, ok := pos[p.ATS]
		if !ok {
			g = len(groups)
			pos[p.ATS] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
