// Package enrich scores un-enriched postings in paced batches and saves the
// store after every batch.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/store"
)

// Defaults used when Options fields are zero.
const (
	DefaultBatchSize = 3
	DefaultPacing    = 2 * time.Second
)

// ErrNoScorer is returned by Run when the pipeline has no scorer.
var ErrNoScorer = errors.New("enrich: no scorer configured")

// Saver persists a store snapshot.
type Saver interface {
	Save(ctx context.Context, s *store.Store) error
}

// Options controls one enrichment run.
type Options struct {
	BatchSize   int
	Pacing      time.Duration // pause between batches, not after the last
	MaxPostings int           // 0 means no limit
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Pacing < 0 {
		o.Pacing = 0
	}
	return o
}

// Result summarises an enrichment run.
type Result struct {
	Eligible   int // postings selected for this run
	Enriched   int // postings that received a result, fallbacks included
	Failed     int // of Enriched, how many are fallbacks
	Batches    int // batches attempted
	SaveErrors int
}

// Pipeline runs batched enrichment against a Scorer.
type Pipeline struct {
	scorer model.Scorer
	saver  Saver
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewPipeline creates a pipeline. saver may be nil to skip persistence.
func NewPipeline(scorer model.Scorer, saver Saver, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		scorer: scorer,
		saver:  saver,
		logger: logger,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Select returns the postings a run with opts would score, in store order.
func Select(s *store.Store, opts Options) []model.Posting {
	eligible := s.Eligible()
	if opts.MaxPostings > 0 && len(eligible) > opts.MaxPostings {
		eligible = eligible[:opts.MaxPostings]
	}
	return eligible
}

// Run scores eligible postings in s. A batch whose scoring call fails gets
// fallback results and the run moves on. The store is saved after every
// batch; save failures are logged and counted but do not stop the run.
// Run only returns early when ctx is cancelled, with the progress so far.
func (p *Pipeline) Run(ctx context.Context, s *store.Store, resume string, opts Options) (Result, error) {
	if p.scorer == nil {
		return Result{}, ErrNoScorer
	}
	opts = opts.withDefaults()

	selected := Select(s, opts)
	batches := partition(selected, opts.BatchSize)
	res := Result{Eligible: len(selected)}
	if len(selected) == 0 {
		p.logger.Info("no postings need enrichment")
		return res, nil
	}

	p.logger.Info("starting enrichment",
		"postings", len(selected),
		"batches", len(batches),
		"batch_size", opts.BatchSize,
		"estimated_cost_usd", fmt.Sprintf("%.3f", EstimateCost(len(selected), opts.BatchSize)),
	)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		num := i + 1
		res.Batches++

		results, err := p.scorer.ScoreBatch(ctx, resume, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			p.logger.Warn("batch scoring failed, using fallback results",
				"batch", num, "of", len(batches), "error", err)
			results = nil
		} else if len(results) != len(batch) {
			p.logger.Warn("batch result count mismatch",
				"batch", num, "requested", len(batch), "returned", len(results))
		}
		results = Repair(results, len(batch), p.now().UTC())

		for j, posting := range batch {
			r := results[j]
			s.SetEnrichment(posting.Link, r)
			res.Enriched++
			if r.Failed {
				res.Failed++
			}
			p.logger.Debug("scored posting",
				"company", posting.Company,
				"title", posting.Title,
				"overall_fit", r.OverallFit,
				"failed", r.Failed,
			)
		}

		if p.saver != nil {
			if err := p.saver.Save(ctx, s); err != nil {
				res.SaveErrors++
				p.logger.Warn("saving store failed, progress may be lost", "batch", num, "error", err)
			}
		}
		p.logger.Info("batch complete", "batch", num, "of", len(batches), "enriched", res.Enriched)

		if num < len(batches) && opts.Pacing > 0 {
			if err := p.sleep(ctx, opts.Pacing); err != nil {
				return res, err
			}
		}
	}

	p.logger.Info("enrichment finished", "enriched", res.Enriched, "failed", res.Failed, "save_errors", res.SaveErrors)
	return res, nil
}

// Repair makes results exactly n long: missing entries become fallback
// results stamped at, extras are dropped.
func Repair(results []model.Enrichment, n int, at time.Time) []model.Enrichment {
	out := make([]model.Enrichment, n)
	copied := copy(out, results)
	for i := copied; i < n; i++ {
		out[i] = model.FallbackEnrichment(at)
	}
	return out
}

func partition(postings []model.Posting, size int) [][]model.Posting {
	var batches [][]model.Posting
	for start := 0; start < len(postings); start += size {
		end := min(start+size, len(postings))
		batches = append(batches, postings[start:end])
	}
	return batches
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
