package main

import (
	"context"
	"os"

	"github.com/amishk599/fitwatch/internal/config"
	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/report"
	"github.com/amishk599/fitwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	recommendTop      int
	recommendCompany  string
	recommendMinScore float64
	recommendFilter   bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print ranked recommendations",
	Long: "Ranks scored postings by overall fit, skills match, interest alignment and a balanced score. " +
		"--filter drops management titles unless their role compatibility is high.",
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVar(&recommendTop, "top", 0, "postings per view (default: ranking.top_n)")
	recommendCmd.Flags().StringVar(&recommendCompany, "company", "", "only rank this company")
	recommendCmd.Flags().Float64Var(&recommendMinScore, "min-score", 0, "minimum overall fit (default: ranking.min_overall_fit)")
	recommendCmd.Flags().BoolVar(&recommendFilter, "filter", false, "exclude management titles")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
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
	printRecommendations(cfg, s)
	return nil
}

// printRecommendations ranks s with the recommend flags and prints every
// view followed by the per-company breakdown.
func printRecommendations(cfg *config.Config, s *store.Store) {
	top := cfg.Ranking.TopN
	if recommendTop > 0 {
		top = recommendTop
	}
	f := rankingFilters(cfg, recommendCompany, recommendMinScore, recommendFilter)

	enriched := s.Enriched()
	r := report.New(os.Stdout)
	r.Recommendations(rank.Rank(enriched, top, f), rank.Views)

	var kept []rank.CompanyStat
	for _, st := range rank.Breakdown(enriched) {
		if f.Company == "" || st.Company == model.NormalizeCompany(f.Company) {
			kept = append(kept, st)
		}
	}
	r.Breakdown(kept)
}
