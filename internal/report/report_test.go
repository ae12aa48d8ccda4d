package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/store"
)

func init() {
	color.NoColor = true
}

func enriched(title, company string, fit float64, score model.Score) model.Posting {
	return model.Posting{
		Link:     "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		Title:    title,
		Company:  company,
		Location: "Remote",
		Enrichment: &model.Enrichment{
			Score:      score,
			OverallFit: fit,
			Summary:    "Strong match",
		},
	}
}

func TestRecommendations(t *testing.T) {
	postings := []model.Posting{
		enriched("Backend Engineer", "acme", 85, model.DetailedScore{SkillsMatch: 80, ExperienceLevel: 70, RoleCompatibility: 90, InterestAlignment: 60}),
		enriched("Data Engineer", "beta", 55, model.LegacyScore{SkillsMatch: 50, InterestAlignment: 40}),
	}
	recs := rank.Rank(postings, 10, rank.Filters{})

	var buf bytes.Buffer
	New(&buf).Recommendations(recs, []rank.View{rank.BestOverall})
	out := buf.String()

	if !strings.Contains(out, "Best overall fit (2)") {
		t.Errorf("missing heading:\n%s", out)
	}
	first := strings.Index(out, "Backend Engineer @ ACME (Remote)")
	second := strings.Index(out, "Data Engineer @ BETA")
	if first < 0 || second < 0 || first > second {
		t.Errorf("postings missing or out of order:\n%s", out)
	}
	if !strings.Contains(out, "role 90") {
		t.Errorf("detailed score should show role compatibility:\n%s", out)
	}
	if strings.Count(out, "role ") != 1 {
		t.Errorf("legacy score should not show role compatibility:\n%s", out)
	}
	if strings.Contains(out, "Best skills match") {
		t.Errorf("unrequested view printed:\n%s", out)
	}
}

func TestRecommendations_Empty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Recommendations(rank.Recommendations{}, nil)
	if !strings.Contains(buf.String(), "No enriched postings") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestRecommendations_FailedBadge(t *testing.T) {
	p := model.Posting{Link: "l", Title: "Broken", Company: "acme"}
	fb := model.FallbackEnrichment(time.Time{})
	p.Enrichment = &fb

	var buf bytes.Buffer
	New(&buf).Recommendations(rank.Rank([]model.Posting{p}, 5, rank.Filters{}), []rank.View{rank.BestOverall})
	if !strings.Contains(buf.String(), "n/a") {
		t.Errorf("failed entry should show n/a badge:\n%s", buf.String())
	}
}

func TestStats(t *testing.T) {
	st := store.Stats{Total: 3, ByCompany: map[string]int{"beta": 1, "acme": 2}, Enriched: 2, Failed: 1, Unenriched: 1}

	var buf bytes.Buffer
	New(&buf).Stats(st)
	out := buf.String()
	if !strings.Contains(out, "total       3") || !strings.Contains(out, "(1 failed)") {
		t.Errorf("unexpected totals:\n%s", out)
	}
	if strings.Index(out, "acme") > strings.Index(out, "beta") {
		t.Errorf("companies should be sorted:\n%s", out)
	}
}

func TestBreakdownAndRuns(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Breakdown([]rank.CompanyStat{{Company: "acme", Postings: 2, AvgOverallFit: 72.5}})
	r.Runs([]store.Run{{ID: "0123456789abcdef", StartedAt: time.Now(), Added: 3, Removed: 1, Enriched: 2}})
	out := buf.String()
	if !strings.Contains(out, "72.5") {
		t.Errorf("missing average:\n%s", out)
	}
	if !strings.Contains(out, "01234567") || strings.Contains(out, "0123456789abcdef") {
		t.Errorf("run id should be shortened:\n%s", out)
	}
	if !strings.Contains(out, "+3 -1") {
		t.Errorf("missing counts:\n%s", out)
	}
}

func TestEnrichPlan(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).EnrichPlan([]model.Posting{{Title: "SRE", Company: "acme"}}, 3, 0.027)
	out := buf.String()
	if !strings.Contains(out, "1 postings to score in batches of 3") || !strings.Contains(out, "$0.027") {
		t.Errorf("unexpected plan:\n%s", out)
	}
}
