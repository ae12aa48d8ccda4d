package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	scrapeCompany    string
	scrapeAllowEmpty bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Refresh postings from every enabled company",
	Long: "Lists each company's open postings, merges them into the cache, fetches missing details " +
		"and reports added and removed postings. An empty listing for a company that has cached " +
		"postings is ignored unless --allow-empty is set.",
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeCompany, "company", "", "refresh only this company")
	scrapeCmd.Flags().BoolVar(&scrapeAllowEmpty, "allow-empty", false, "let an empty listing remove all of a company's cached postings")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
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

	runner, err := newRunner(cfg, persister, scrapeCompany, scrapeAllowEmpty, false, logger)
	if err != nil {
		logger.Error("failed to set up sources", "error", err)
		os.Exit(1)
	}
	_, err = runner.RunOnce(ctx)
	return err
}
