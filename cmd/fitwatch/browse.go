package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amishk599/fitwatch/internal/browse"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/store"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse ranked postings interactively (TUI)",
	Long:  "Shows the view picker, then a list of ranked postings with their scores and full analysis.",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&recommendCompany, "company", "", "only show this company")
	browseCmd.Flags().BoolVar(&recommendFilter, "filter", false, "exclude management titles")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(setupLogger(debug))
	// Log output corrupts the TUI.
	logger := silentLogger()

	persister, err := openPersister(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer persister.Close()

	s, err := browse.RunLoader(cfg.Store.Backend+" store", func(ctx context.Context) (*store.Store, error) {
		return persister.Load(ctx)
	})
	if err != nil {
		return err
	}

	recs := rank.Rank(s.Enriched(), cfg.Ranking.TopN, rankingFilters(cfg, recommendCompany, 0, recommendFilter))
	for {
		view, ok, err := browse.RunViewPicker(recs)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if !ok {
			return nil
		}
		wantQuit, err := browse.Run(recs, view)
		if err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}
