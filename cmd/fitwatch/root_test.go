package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/fitwatch/internal/config"
	"github.com/amishk599/fitwatch/internal/enrich"
	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/store"
)

func TestRankingFilters(t *testing.T) {
	cfg := &config.Config{Ranking: config.RankingConfig{
		MinOverallFit:      50,
		ManagementOverride: 70,
	}}

	f := rankingFilters(cfg, "Acme", 0, false)
	if f.MinOverallFit != 50 || f.Company != "Acme" || f.ManagementOverride != 70 {
		t.Errorf("unexpected filters: %+v", f)
	}
	if f.ManagementKeywords != nil {
		t.Error("management heuristic should be off by default")
	}

	f = rankingFilters(cfg, "", 65, true)
	if f.MinOverallFit != 65 {
		t.Errorf("min-score flag should override config, got %v", f.MinOverallFit)
	}
	if !slices.Equal(f.ManagementKeywords, rank.DefaultManagementKeywords) {
		t.Errorf("expected default management keywords, got %v", f.ManagementKeywords)
	}

	cfg.Ranking.FilterManagement = true
	cfg.Ranking.ManagementKeywords = []string{"lead"}
	f = rankingFilters(cfg, "", 0, false)
	if !slices.Equal(f.ManagementKeywords, []string{"lead"}) {
		t.Errorf("expected configured keywords, got %v", f.ManagementKeywords)
	}
}

func TestReadResume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("  Go engineer\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readResume(path)
	if err != nil || got != "Go engineer" {
		t.Errorf("readResume = %q, %v", got, err)
	}

	empty := filepath.Join(dir, "empty.txt")
	os.WriteFile(empty, []byte("\n"), 0o644)
	if _, err := readResume(empty); err == nil {
		t.Error("expected error for empty résumé")
	}
	if _, err := readResume(""); err == nil {
		t.Error("expected error for unset path")
	}
}

func TestLoadConfig_EnvPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
companies:
  - name: Acme
    ats: greenhouse
    board_token: acme
    enabled: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FITWATCH_CONFIG", path)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Companies) != 1 || cfg.Companies[0].Name != "Acme" {
		t.Errorf("unexpected companies: %+v", cfg.Companies)
	}
}

func TestBuildScorer_RateLimitedFallsBackWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
companies:
  - name: Acme
    ats: greenhouse
    board_token: acme
    enabled: true
ai:
  enabled: true
  model: m
  api_key: k
  base_url: ` + srv.URL + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	scorer, err := buildScorer(cfg, silentLogger())
	if err != nil {
		t.Fatalf("buildScorer: %v", err)
	}

	s := store.New(model.Posting{
		Link:        "https://example.com/acme/1",
		Title:       "Backend Engineer",
		Company:     "acme",
		Description: "Go services",
	})
	res, err := enrich.NewPipeline(scorer, nil, silentLogger()).Run(context.Background(), s, "resume", enrich.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one provider call, got %d", got)
	}
	if res.Enriched != 1 || res.Failed != 1 {
		t.Errorf("expected one fallback result, got %+v", res)
	}
	p, _ := s.Get("https://example.com/acme/1")
	if p.Enrichment == nil || !p.Enrichment.Failed {
		t.Errorf("expected a fallback enrichment, got %+v", p.Enrichment)
	}
}

func TestApplyEnrichFlags(t *testing.T) {
	t.Cleanup(func() {
		for _, name := range []string{"limit", "batch-size", "pacing"} {
			enrichCmd.Flags().Lookup(name).Changed = false
		}
		enrichLimit, enrichBatchSize, enrichPacing = 0, 0, 0
	})
	fromConfig := enrich.Options{MaxPostings: 20, BatchSize: 5, Pacing: 2 * time.Second}

	if got := applyEnrichFlags(enrichCmd, fromConfig); got != fromConfig {
		t.Errorf("unset flags should keep config values, got %+v", got)
	}

	for name, value := range map[string]string{"limit": "0", "batch-size": "0", "pacing": "0s"} {
		if err := enrichCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set --%s: %v", name, err)
		}
	}
	got := applyEnrichFlags(enrichCmd, fromConfig)
	if got.MaxPostings != 0 || got.BatchSize != 0 || got.Pacing != 0 {
		t.Errorf("explicit zero flags should override config, got %+v", got)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
