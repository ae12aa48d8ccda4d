// Package browse is the interactive terminal browser for ranked postings.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/rank"
)

// Lines per posting in the list pane (title + subtitle + blank separator).
const itemHeight = 3

type screen int

const (
	screenList screen = iota
	screenDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(18)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func scoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= 80:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	case v >= 60:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	}
}

// browseModel shows one ranked view as a list with a score preview pane and
// a full-screen detail page.
type browseModel struct {
	recs     rank.Recommendations
	view     rank.View
	postings []model.Posting
	cursor   int

	listViewport    viewport.Model
	previewViewport viewport.Model
	width, height   int
	ready           bool

	screen          screen
	detailViewport  viewport.Model
	showDescription bool

	open     func(url string)
	wantQuit bool
}

func newBrowseModel(recs rank.Recommendations, v rank.View) browseModel {
	return browseModel{
		recs:     recs,
		view:     v,
		postings: recs[v],
		open:     openURL,
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.screen == screenDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab":
		m.switchView(1)
		return m, nil
	case "shift+tab":
		m.switchView(-1)
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "o":
		if p, ok := m.selected(); ok {
			m.open(p.Link)
		}
		return m, nil
	case "enter":
		return m.openDetail()
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = screenList
		return m, nil
	case "o":
		if p, ok := m.selected(); ok {
			m.open(p.Link)
		}
		return m, nil
	case "r":
		if p, ok := m.selected(); ok && p.HasDescription() {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) switchView(delta int) {
	i := slices.Index(rank.Views, m.view)
	n := len(rank.Views)
	m.view = rank.Views[((i+delta)%n+n)%n]
	m.postings = m.recs[m.view]
	m.cursor = 0
	m.listViewport.SetYOffset(0)
	m.recalcContent()
}

func (m *browseModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.postings)-1, 0))
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *browseModel) ensureCursorVisible() {
	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1
	vp := &m.listViewport
	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m browseModel) selected() (model.Posting, bool) {
	if m.cursor >= len(m.postings) {
		return model.Posting{}, false
	}
	return m.postings[m.cursor], true
}

func (m browseModel) openDetail() (tea.Model, tea.Cmd) {
	if _, ok := m.selected(); !ok {
		return m, nil
	}
	m.screen = screenDetail
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) recalcLayout() {
	// List gets 60% of the width, preview the rest. 2 border chars per pane
	// plus a 1-column gap.
	listWidth := max((m.width-5)*3/5, 20)
	previewWidth := max(m.width-5-listWidth, 20)
	// Header + border top/bottom + status bar.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(listWidth, paneHeight)
		m.previewViewport = viewport.New(previewWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width, m.listViewport.Height = listWidth, paneHeight
		m.previewViewport.Width, m.previewViewport.Height = previewWidth, paneHeight
	}
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderList(m.postings, m.view, m.cursor))
	preview := "  (nothing selected)"
	if p, ok := m.selected(); ok {
		preview = renderScores(p)
	}
	m.previewViewport.SetContent(preview)
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.screen == screenDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf("%s (%d)", m.view.Title(), len(m.postings)))
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		activeBorderStyle.Width(m.listViewport.Width).Render(m.listViewport.View()),
		" ",
		inactiveBorderStyle.Width(m.previewViewport.Width).Render(m.previewViewport.View()),
	)
	status := statusBarStyle.Width(m.width).Render(
		" tab/shift+tab switch view  ↑/↓ cursor  enter detail  o open  esc back  q quit")
	return header + "\n" + panes + "\n" + status
}

func (m browseModel) viewDetail() string {
	title := headerStyle.Render("Posting")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	hint := " o open link  esc/backspace back  ↑/↓ scroll  q quit"
	if p, ok := m.selected(); ok && p.HasDescription() {
		hint = " o open link  r description  esc/backspace back  ↑/↓ scroll  q quit"
	}
	return title + "\n" + content + "\n" + statusBarStyle.Width(m.width).Render(hint)
}

func (m browseModel) renderDetail() string {
	p, ok := m.selected()
	if !ok {
		return ""
	}
	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	field("Title", p.Title)
	field("Company", strings.ToUpper(p.Company))
	field("Team", p.Team)
	field("Location", p.Location)
	field("Posted", p.PostingDate)
	field("Link", p.Link)
	if !p.FirstSeen.IsZero() {
		field("First seen", p.FirstSeen.Local().Format("2006-01-02 15:04"))
	}

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		return dividerStyle.Render(label + strings.Repeat("─", max(wrapWidth-len(label), 3)))
	}

	if e := p.Enrichment; e != nil {
		b.WriteByte('\n')
		b.WriteString(divider("── Fit analysis ") + "\n\n")
		b.WriteString(renderScores(p))
		if e.Summary != "" {
			b.WriteByte('\n')
			b.WriteString(bodyStyle.Render(wordWrap(e.Summary, wrapWidth)) + "\n")
		}
		bullets := func(heading string, items []string) {
			if len(items) == 0 {
				return
			}
			b.WriteString("\n" + labelStyle.Render(heading) + "\n")
			for _, it := range items {
				b.WriteString("  • " + it + "\n")
			}
		}
		bullets("Strengths", e.KeyStrengths)
		bullets("Gaps", e.PotentialGaps)
		if e.ExcitementFactor != "" {
			b.WriteByte('\n')
			field("Excitement", e.ExcitementFactor)
		}
	}

	if p.HasDescription() {
		b.WriteByte('\n')
		if m.showDescription {
			b.WriteString(divider("── Description ") + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")
			if p.Requirements != "" {
				b.WriteString("\n" + divider("── Requirements ") + "\n\n")
				b.WriteString(bodyStyle.Render(wordWrap(p.Requirements, wrapWidth)) + "\n")
			}
		} else {
			b.WriteString(hintStyle.Render("  press r to read the description") + "\n")
		}
	}
	return b.String()
}

// renderScores formats the sub-scores of an enriched posting.
func renderScores(p model.Posting) string {
	e := p.Enrichment
	if e == nil {
		return "  (not scored)"
	}
	var b strings.Builder
	if e.Failed {
		b.WriteString(failedStyle.Render("  scoring failed, run enrich --retry-failed") + "\n\n")
	}
	line := func(label string, v float64) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(scoreStyle(v).Render(fmt.Sprintf("%5.1f", v)))
		b.WriteByte('\n')
	}
	line("Overall fit", e.OverallFit)
	line("Skills", e.Skills())
	line("Interest", e.Interest())
	line("Experience", model.Experience(e.Score))
	if role, ok := model.RoleCompatibility(e.Score); ok {
		line("Role fit", role)
	}
	line("Balanced", e.Balanced())
	rec := "no"
	if e.WouldRecommend {
		rec = "yes"
	}
	b.WriteString(labelStyle.Render("Recommend") + rec + "\n")
	return b.String()
}

func renderList(postings []model.Posting, v rank.View, cursor int) string {
	if len(postings) == 0 {
		return "  (no postings)"
	}
	var b strings.Builder
	for i, p := range postings {
		tSt, sSt, prefix := titleStyle, subtitleStyle, "  "
		if i == cursor {
			tSt, sSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}
		score := "  n/a"
		if p.Enrichment != nil && !p.Enrichment.Failed {
			score = fmt.Sprintf("%5.1f", v.Key(*p.Enrichment))
		}
		b.WriteString(prefix)
		b.WriteString(tSt.Render(fmt.Sprintf("%s  %s", score, p.Title)))
		b.WriteByte('\n')

		sub := strings.ToUpper(p.Company)
		if p.Location != "" {
			sub += " · " + p.Location
		}
		b.WriteString(prefix)
		b.WriteString(sSt.Render(sub))
		b.WriteByte('\n')
		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the full-screen browser on view v. It returns wantQuit=true
// if the user pressed q, false if they pressed esc to go back to the picker.
func Run(recs rank.Recommendations, v rank.View) (bool, error) {
	result, err := tea.NewProgram(newBrowseModel(recs, v), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return result.(browseModel).wantQuit, nil
}
