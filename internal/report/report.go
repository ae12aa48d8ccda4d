// Package report renders ranked views and store statistics for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/store"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	faint   = color.New(color.Faint)
	good    = color.New(color.FgGreen, color.Bold)
	fair    = color.New(color.FgYellow)
	poor    = color.New(color.FgRed)
	failed  = color.New(color.FgMagenta)
)

// Renderer writes human-readable reports to w.
type Renderer struct {
	w io.Writer
}

// New returns a renderer writing to w. Colors follow color.NoColor, which is
// set automatically when w is not a terminal.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func scoreColor(v float64) *color.Color {
	switch {
	case v >= 80:
		return good
	case v >= 60:
		return fair
	default:
		return poor
	}
}

// Recommendations prints each view in views that has entries. An empty
// views slice prints every view.
func (r *Renderer) Recommendations(recs rank.Recommendations, views []rank.View) {
	if len(views) == 0 {
		views = rank.Views
	}
	printed := 0
	for _, v := range views {
		list := recs[v]
		if len(list) == 0 {
			continue
		}
		printed++
		heading.Fprintf(r.w, "\n%s (%d)\n", v.Title(), len(list))
		fmt.Fprintln(r.w, faint.Sprint(strings.Repeat("─", 60)))
		for i, p := range list {
			r.posting(i+1, v, p)
		}
	}
	if printed == 0 {
		fmt.Fprintln(r.w, "No enriched postings match the current filters.")
	}
}

func (r *Renderer) posting(n int, v rank.View, p model.Posting) {
	e := p.Enrichment
	key := v.Key(*e)

	badge := scoreColor(key).Sprintf("%5.1f", key)
	if e.Failed {
		badge = failed.Sprint("  n/a")
	}
	fmt.Fprintf(r.w, "%3d. %s  %s @ %s", n, badge, p.Title, strings.ToUpper(p.Company))
	if p.Location != "" {
		fmt.Fprintf(r.w, " (%s)", p.Location)
	}
	fmt.Fprintln(r.w)

	parts := []string{
		fmt.Sprintf("fit %.0f", e.OverallFit),
		fmt.Sprintf("skills %.0f", e.Skills()),
		fmt.Sprintf("interest %.0f", e.Interest()),
		fmt.Sprintf("balanced %.1f", e.Balanced()),
	}
	if role, ok := model.RoleCompatibility(e.Score); ok {
		parts = append(parts, fmt.Sprintf("role %.0f", role))
	}
	fmt.Fprintf(r.w, "      %s\n", faint.Sprint(strings.Join(parts, "  ")))
	if e.Summary != "" {
		fmt.Fprintf(r.w, "      %s\n", e.Summary)
	}
	fmt.Fprintf(r.w, "      %s\n", faint.Sprint(p.Link))
}

// Breakdown prints per-company averages.
func (r *Renderer) Breakdown(stats []rank.CompanyStat) {
	if len(stats) == 0 {
		return
	}
	heading.Fprintln(r.w, "\nBy company")
	fmt.Fprintf(r.w, "%-25s %8s %8s %8s\n", "Company", "Scored", "Failed", "Avg fit")
	fmt.Fprintln(r.w, faint.Sprint(strings.Repeat("─", 52)))
	for _, st := range stats {
		avg := scoreColor(st.AvgOverallFit).Sprintf("%8.1f", st.AvgOverallFit)
		fmt.Fprintf(r.w, "%-25s %8d %8d %s\n", st.Company, st.Postings, st.Failed, avg)
	}
}

// Stats prints store totals and per-company counts.
func (r *Renderer) Stats(st store.Stats) {
	heading.Fprintln(r.w, "Store")
	fmt.Fprintf(r.w, "  total       %d\n", st.Total)
	fmt.Fprintf(r.w, "  enriched    %d", st.Enriched)
	if st.Failed > 0 {
		failed.Fprintf(r.w, " (%d failed)", st.Failed)
	}
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "  pending     %d\n", st.Unenriched)
	fmt.Fprintf(r.w, "  no detail   %d\n", st.NoDetail)

	if len(st.ByCompany) == 0 {
		return
	}
	heading.Fprintln(r.w, "\nCompanies")
	for _, c := range st.Companies() {
		fmt.Fprintf(r.w, "  %-25s %d\n", c, st.ByCompany[c])
	}
}

// Runs prints recent run history, newest first.
func (r *Renderer) Runs(runs []store.Run) {
	if len(runs) == 0 {
		return
	}
	heading.Fprintln(r.w, "\nRecent runs")
	for _, run := range runs {
		fmt.Fprintf(r.w, "  %s  %s  +%d -%d  enriched %d\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			faint.Sprint(run.ID[:min(8, len(run.ID))]),
			run.Added, run.Removed, run.Enriched)
	}
}

// EnrichPlan prints what an enrichment run would do.
func (r *Renderer) EnrichPlan(postings []model.Posting, batchSize int, cost float64) {
	heading.Fprintf(r.w, "%d postings to score in batches of %d\n", len(postings), batchSize)
	for _, p := range postings {
		fmt.Fprintf(r.w, "  %s @ %s\n", p.Title, strings.ToUpper(p.Company))
	}
	fmt.Fprintf(r.w, "Estimated cost: $%.3f\n", cost)
}
