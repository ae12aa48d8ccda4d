package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape, score and recommend once",
	Long:  "Runs one full cycle: refresh every company, score new postings when AI is enabled, then print recommendations.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&recommendTop, "top", 0, "postings per view (default: ranking.top_n)")
	runCmd.Flags().BoolVar(&recommendFilter, "filter", false, "exclude management titles")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	runner, err := newRunner(cfg, persister, "", false, true, logger)
	if err != nil {
		logger.Error("failed to set up run", "error", err)
		os.Exit(1)
	}
	sum, err := runner.RunOnce(ctx)
	if err != nil {
		return err
	}
	printRecommendations(cfg, sum.Store)
	return nil
}
