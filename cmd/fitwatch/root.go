package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/amishk599/fitwatch/internal/ai"
	"github.com/amishk599/fitwatch/internal/config"
	"github.com/amishk599/fitwatch/internal/enrich"
	"github.com/amishk599/fitwatch/internal/filter"
	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/notifier"
	"github.com/amishk599/fitwatch/internal/poller"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/ratelimit"
	"github.com/amishk599/fitwatch/internal/reconcile"
	"github.com/amishk599/fitwatch/internal/retry"
	"github.com/amishk599/fitwatch/internal/source"
	"github.com/amishk599/fitwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "fitwatch",
	Short: "Track job postings and score them against your résumé",
	Long: "fitwatch scrapes company career sites into a local cache, tracks added and removed postings, " +
		"scores new postings against your résumé with an LLM, and ranks the results.",
	SilenceUsage: true,
	// With no subcommand fitwatch runs the scheduled watch loop.
	RunE: runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: FITWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it. A .env file in the
// working directory is loaded first so the config can reference its values.
// Priority: explicit path arg > FITWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		if env := os.Getenv("FITWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// mustLoadConfig loads the config or exits.
func mustLoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// silentLogger is used while a full-screen TUI owns the terminal.
func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "none":
		return notifier.Multi(nil)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func openPersister(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Persister, error) {
	codec := store.NewCodec(cfg.CompanyDomains())
	switch cfg.Store.Backend {
	case "sqlite":
		p, err := store.NewSQLitePersister(cfg.Store.Path, codec, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "redis":
		p, err := store.NewRedisPersister(ctx, cfg.Store.RedisURL, cfg.Store.RedisKey, codec, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return store.NewFilePersister(cfg.Store.Path, codec, logger), nil
	}
}

// buildPollers creates one poller per enabled company, or only for the
// company named by only. Every source is paced per ATS and retried on
// transient errors.
func buildPollers(cfg *config.Config, only string, allowEmpty bool, n model.Notifier, logger *slog.Logger) ([]*poller.CompanyPoller, error) {
	httpClient := &http.Client{Timeout: cfg.Scrape.Timeout}
	limiter := ratelimit.NewATSRateLimiter(cfg.Scrape.MinDelay, cfg.Scrape.ATSOverrides)
	logger.Debug("rate limiter configured", "min_delay", cfg.Scrape.MinDelay.String())

	reg := source.NewRegistry()
	atsByCompany := make(map[string]string)
	for _, c := range cfg.EnabledCompanies() {
		src, err := source.New(source.Spec{
			Company:    c.Name,
			ATS:        c.ATS,
			BoardToken: c.BoardToken,
			URL:        c.URL,
			Selectors:  source.Selectors(c.Selectors),
		}, httpClient)
		if err != nil {
			return nil, err
		}
		src = ratelimit.NewRateLimitedSource(src, limiter, c.ATS)
		src = retry.NewRetrySource(src, cfg.Scrape.Retries, cfg.Scrape.RetryDelay, logger)
		reg.Register(src)
		atsByCompany[model.NormalizeCompany(c.Name)] = c.ATS
	}

	sources := reg.All()
	if only != "" {
		src, ok := reg.Get(only)
		if !ok {
			return nil, fmt.Errorf("unknown company %q (enabled: %s)", only, strings.Join(reg.Companies(), ", "))
		}
		sources = []model.Source{src}
	}

	postingFilter := filter.NewTitleAndLocationFilter(
		cfg.Filters.TitleKeywords,
		cfg.Filters.TitleExcludeKeywords,
		cfg.Filters.Locations,
	)
	opts := poller.Options{
		MaxDetailFetches: cfg.Scrape.MaxDetailFetches,
		Reconcile: reconcile.Options{
			AllowEmpty:        allowEmpty || cfg.Scrape.AllowEmptyRemoval,
			KeepCachedDetails: cfg.Scrape.KeepCachedDetails,
		},
	}
	if opts.MaxDetailFetches == 0 {
		opts.MaxDetailFetches = -1
	}

	pollers := make([]*poller.CompanyPoller, 0, len(sources))
	for _, src := range sources {
		ats := atsByCompany[model.NormalizeCompany(src.Company())]
		pollers = append(pollers, poller.NewCompanyPoller(ats, src, postingFilter, n, opts, logger))
		logger.Debug("registered company", "name", src.Company(), "ats", ats)
	}
	return pollers, nil
}

// buildScorer wires the configured LLM provider behind a retrying
// completer.
func buildScorer(cfg *config.Config, logger *slog.Logger) (model.Scorer, error) {
	if !cfg.AI.Enabled {
		return nil, fmt.Errorf("AI scoring is disabled, set ai.enabled: true in config.yaml")
	}
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}

	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case "openai":
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens, httpClient)
	default:
		provider = ai.NewAnthropicProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens, httpClient)
	}
	provider = retry.NewRetryCompleter(provider, cfg.AI.Retries, cfg.Scrape.RetryDelay, logger)
	logger.Debug("scorer configured", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	return ai.NewLLMScorer(provider, ai.FitAnalysisTemplate, logger), nil
}

func readResume(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("enrichment.resume_path is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading résumé: %w", err)
	}
	resume := strings.TrimSpace(string(data))
	if resume == "" {
		return "", fmt.Errorf("résumé %s is empty", path)
	}
	return resume, nil
}

// rankingFilters combines the ranking config with command-line overrides.
// applyManagement enables the management-title heuristic.
func rankingFilters(cfg *config.Config, company string, minScore float64, applyManagement bool) rank.Filters {
	f := rank.Filters{
		MinOverallFit:        cfg.Ranking.MinOverallFit,
		MinRoleCompatibility: cfg.Ranking.MinRoleCompatibility,
		ManagementOverride:   cfg.Ranking.ManagementOverride,
		Company:              company,
	}
	if minScore > 0 {
		f.MinOverallFit = minScore
	}
	if applyManagement || cfg.Ranking.FilterManagement {
		f.ManagementKeywords = cfg.Ranking.ManagementKeywords
		if len(f.ManagementKeywords) == 0 {
			f.ManagementKeywords = rank.DefaultManagementKeywords
		}
	}
	return f
}

func notifyClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Scrape.Timeout}
}

// newRunner wires pollers and persistence into a runner. With
// withEnrichment set and AI enabled, each run also scores new postings.
func newRunner(cfg *config.Config, persister store.Persister, only string, allowEmpty, withEnrichment bool, logger *slog.Logger) (*poller.Runner, error) {
	n := setupNotifier(cfg, notifyClient(cfg), logger)
	pollers, err := buildPollers(cfg, only, allowEmpty, n, logger)
	if err != nil {
		return nil, err
	}

	runner := poller.NewRunner(pollers, persister, logger)
	if rec, ok := persister.(poller.RunRecorder); ok {
		runner.WithRecorder(rec)
	}
	if !withEnrichment {
		return runner, nil
	}
	if !cfg.AI.Enabled {
		logger.Info("AI scoring disabled, runs will only scrape")
		return runner, nil
	}

	scorer, err := buildScorer(cfg, logger)
	if err != nil {
		return nil, err
	}
	resume, err := readResume(cfg.Enrichment.ResumePath)
	if err != nil {
		return nil, err
	}
	pipeline := enrich.NewPipeline(scorer, persister, logger)
	return runner.WithEnrichment(pipeline, resume, enrichOptions(cfg)), nil
}

func enrichOptions(cfg *config.Config) enrich.Options {
	return enrich.Options{
		BatchSize:   cfg.Enrichment.BatchSize,
		Pacing:      cfg.Enrichment.Pacing,
		MaxPostings: cfg.Enrichment.MaxPostings,
	}
}
