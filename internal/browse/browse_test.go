package browse

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/rank"
	"github.com/amishk599/fitwatch/internal/store"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testRecs() rank.Recommendations {
	postings := []model.Posting{
		{
			Link: "https://x/1", Title: "Backend Engineer", Company: "acme", Location: "Remote",
			Description: "Build services in Go.",
			Enrichment: &model.Enrichment{
				Score:        model.DetailedScore{SkillsMatch: 90, ExperienceLevel: 70, RoleCompatibility: 80, InterestAlignment: 50},
				OverallFit:   85,
				KeyStrengths: []string{"Go"},
				Summary:      "Great fit",
			},
		},
		{
			Link: "https://x/2", Title: "Data Engineer", Company: "beta",
			Enrichment: &model.Enrichment{
				Score:      model.LegacyScore{SkillsMatch: 40, InterestAlignment: 95},
				OverallFit: 60,
			},
		},
	}
	return rank.Rank(postings, 10, rank.Filters{})
}

func sized(m browseModel) browseModel {
	out, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return out.(browseModel)
}

func press(t *testing.T, m browseModel, keys ...string) (browseModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var out tea.Model
		out, cmd = m.Update(key(k))
		m = out.(browseModel)
	}
	return m, cmd
}

func TestBrowse_CursorClamps(t *testing.T) {
	m := sized(newBrowseModel(testRecs(), rank.BestOverall))

	m, _ = press(t, m, "down", "down", "down")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m, _ = press(t, m, "k", "k")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestBrowse_SwitchView(t *testing.T) {
	m := sized(newBrowseModel(testRecs(), rank.BestOverall))
	m, _ = press(t, m, "down", "tab")

	if m.view != rank.BestSkills {
		t.Fatalf("view = %s, want %s", m.view, rank.BestSkills)
	}
	if m.cursor != 0 {
		t.Errorf("cursor should reset on view switch, got %d", m.cursor)
	}

	m, _ = press(t, m, "tab", "tab")
	if m.view != rank.BestBalanced {
		t.Fatalf("view = %s, want %s", m.view, rank.BestBalanced)
	}
	m, _ = press(t, m, "tab")
	if m.view != rank.BestOverall {
		t.Errorf("tab should wrap to first view, got %s", m.view)
	}
	m, _ = press(t, m, "shift+tab")
	if m.view != rank.BestBalanced {
		t.Errorf("shift+tab should wrap to last view, got %s", m.view)
	}

	m, _ = press(t, m, "shift+tab", "shift+tab")
	if got := m.postings[0].Title; got != "Data Engineer" {
		t.Errorf("interest view top = %q, want Data Engineer", got)
	}
}

func TestBrowse_DetailAndDescription(t *testing.T) {
	m := sized(newBrowseModel(testRecs(), rank.BestOverall))
	m, _ = press(t, m, "enter")
	if m.screen != screenDetail {
		t.Fatal("enter should open detail")
	}
	if !strings.Contains(m.renderDetail(), "press r") {
		t.Error("description hint missing")
	}

	m, _ = press(t, m, "r")
	if !m.showDescription || !strings.Contains(m.renderDetail(), "Build services in Go.") {
		t.Error("r should reveal the description")
	}
	if !strings.Contains(m.renderDetail(), "Great fit") {
		t.Error("summary missing from detail")
	}

	m, _ = press(t, m, "esc")
	if m.screen != screenList {
		t.Error("esc should return to the list")
	}
}

func TestBrowse_OpenLink(t *testing.T) {
	var opened string
	m := newBrowseModel(testRecs(), rank.BestOverall)
	m.open = func(url string) { opened = url }
	m = sized(m)

	press(t, m, "down", "o")
	if opened != "https://x/2" {
		t.Errorf("opened %q, want https://x/2", opened)
	}
}

func TestBrowse_QuitVersusBack(t *testing.T) {
	m := sized(newBrowseModel(testRecs(), rank.BestOverall))

	back, cmd := press(t, m, "esc")
	if back.wantQuit || cmd == nil {
		t.Error("esc should exit without quitting")
	}
	quit, cmd := press(t, m, "q")
	if !quit.wantQuit || cmd == nil {
		t.Error("q should quit")
	}
}

func TestBrowse_EmptyView(t *testing.T) {
	m := sized(newBrowseModel(rank.Recommendations{}, rank.BestOverall))
	m, _ = press(t, m, "down", "enter")
	if m.screen != screenList {
		t.Error("enter on empty list should stay on the list")
	}
	if !strings.Contains(m.View(), "(no postings)") {
		t.Error("empty placeholder missing")
	}
}

func TestRenderScores(t *testing.T) {
	recs := testRecs()
	detailed := renderScores(recs[rank.BestOverall][0])
	if !strings.Contains(detailed, "Role fit") {
		t.Errorf("detailed score should include role fit:\n%s", detailed)
	}
	legacy := renderScores(recs[rank.BestOverall][1])
	if strings.Contains(legacy, "Role fit") {
		t.Errorf("legacy score should not include role fit:\n%s", legacy)
	}
	if got := renderScores(model.Posting{}); !strings.Contains(got, "not scored") {
		t.Errorf("unexpected output for unscored posting: %q", got)
	}
}

func TestPicker(t *testing.T) {
	m := newPicker(testRecs())
	for _, k := range []string{"j", "j", "enter"} {
		out, _ := m.Update(key(k))
		m = out.(pickerModel)
	}
	if m.chosen != 2 {
		t.Errorf("chosen = %d, want 2", m.chosen)
	}
	if !strings.Contains(m.View(), "Best overall fit (2)") {
		t.Errorf("picker view missing counts:\n%s", m.View())
	}

	out, _ := newPicker(nil).Update(key("q"))
	if out.(pickerModel).chosen != pickQuit {
		t.Error("q should quit the picker")
	}
}

func TestLoader(t *testing.T) {
	want := store.New(model.Posting{Link: "a"})
	m := newLoader("jobs", func(context.Context) (*store.Store, error) { return want, nil })

	msg := m.doLoad()()
	out, cmd := m.Update(msg)
	got := out.(loaderModel)
	if got.result != want || got.err != nil || cmd == nil {
		t.Errorf("unexpected loader state: %+v", got)
	}

	out, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !errors.Is(out.(loaderModel).err, errCancelled) {
		t.Error("ctrl+c should cancel")
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three\n\nfour", 7)
	want := "one two\nthree\nfour"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
}
