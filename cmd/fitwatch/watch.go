package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amishk599/fitwatch/internal/scheduler"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the full cycle on a schedule",
	Long:  "Runs one cycle immediately and then on the configured cron schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)
	if err := scheduler.Validate(cfg.Schedule); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"companies", len(cfg.EnabledCompanies()),
		"store", cfg.Store.Backend,
		"ai", cfg.AI.Enabled,
	)

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

	sched := scheduler.NewScheduler(cfg.Schedule, func(ctx context.Context) error {
		_, err := runner.RunOnce(ctx)
		return err
	}, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
