package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amishk599/fitwatch/internal/enrich"
	"github.com/amishk599/fitwatch/internal/report"
	"github.com/spf13/cobra"
)

var (
	enrichLimit       int
	enrichBatchSize   int
	enrichPacing      time.Duration
	enrichRetryFailed bool
	enrichDryRun      bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Score un-enriched postings against your résumé",
	Long: "Sends cached postings that have a description but no score to the configured LLM in batches. " +
		"The cache is saved after every batch, so an interrupted run keeps its progress.",
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "score at most this many postings, 0 for no limit (default: enrichment.max_postings)")
	enrichCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0, "postings per LLM call, 0 for the built-in default (default: enrichment.batch_size)")
	enrichCmd.Flags().DurationVar(&enrichPacing, "pacing", 0, "pause between batches (default: enrichment.pacing)")
	enrichCmd.Flags().BoolVar(&enrichRetryFailed, "retry-failed", false, "clear failed results so those postings are scored again")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "print what would be scored and the estimated cost, then exit")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persister, err := openPersister(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer persister.Close()

	s, err := persister.Load(ctx)
	if err != nil {
		return err
	}

	opts := applyEnrichFlags(cmd, enrichOptions(cfg))

	if enrichRetryFailed {
		cleared := s.ClearFailed()
		logger.Info("cleared failed results", "count", cleared)
		if cleared > 0 && !enrichDryRun {
			if err := persister.Save(ctx, s); err != nil {
				return err
			}
		}
	}

	if enrichDryRun {
		selected := enrich.Select(s, opts)
		report.New(os.Stdout).EnrichPlan(selected, opts.BatchSize, enrich.EstimateCost(len(selected), opts.BatchSize))
		return nil
	}

	scorer, err := buildScorer(cfg, logger)
	if err != nil {
		logger.Error("failed to set up scorer", "error", err)
		os.Exit(1)
	}
	resume, err := readResume(cfg.Enrichment.ResumePath)
	if err != nil {
		logger.Error("failed to read résumé", "error", err)
		os.Exit(1)
	}

	res, err := enrich.NewPipeline(scorer, persister, logger).Run(ctx, s, resume, opts)
	if err != nil {
		return err
	}
	if res.SaveErrors > 0 {
		logger.Warn("some batches were not saved", "save_errors", res.SaveErrors)
	}
	return nil
}

// applyEnrichFlags overrides opts with every flag set on the command line,
// zero values included.
func applyEnrichFlags(cmd *cobra.Command, opts enrich.Options) enrich.Options {
	flags := cmd.Flags()
	if flags.Changed("limit") {
		opts.MaxPostings = enrichLimit
	}
	if flags.Changed("batch-size") {
		opts.BatchSize = enrichBatchSize
	}
	if flags.Changed("pacing") {
		opts.Pacing = enrichPacing
	}
	return opts
}
