package main

import (
	"context"
	"os"

	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/report"
	"github.com/amishk599/fitwatch/internal/store"
	"github.com/spf13/cobra"
)

var statsRuns int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  "Prints posting counts per company and enrichment status. The sqlite backend also lists recent runs.",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRuns, "runs", 10, "number of recent runs to show (sqlite backend)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	ctx := context.Background()
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

	r := report.New(os.Stdout)
	r.Stats(s.Stats())
	r.Breakdown(rank.Breakdown(s.Enriched()))

	if db, ok := persister.(*store.SQLitePersister); ok && statsRuns > 0 {
		runs, err := db.RecentRuns(ctx, statsRuns)
		if err != nil {
			return err
		}
		r.Runs(runs)
	}
	return nil
}
