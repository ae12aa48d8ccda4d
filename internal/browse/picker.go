package browse

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/fitwatch/internal/rank"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

const (
	pickPending = -1
	pickQuit    = -2
)

type pickerModel struct {
	recs   rank.Recommendations
	cursor int
	chosen int
}

func newPicker(recs rank.Recommendations) pickerModel {
	return pickerModel{recs: recs, chosen: pickPending}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.chosen = pickQuit
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rank.Views)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Recommendations: select a view"))
	b.WriteByte('\n')
	for i, v := range rank.Views {
		label := fmt.Sprintf("%s (%d)", v.Title(), len(m.recs[v]))
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> " + label))
		} else {
			b.WriteString(pickerItemStyle.Render(label))
		}
		b.WriteByte('\n')
	}
	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// RunViewPicker shows an interactive view selector. ok is false when the
// user quit.
func RunViewPicker(recs rank.Recommendations) (v rank.View, ok bool, err error) {
	result, err := tea.NewProgram(newPicker(recs)).Run()
	if err != nil {
		return "", false, err
	}
	final := result.(pickerModel)
	if final.chosen < 0 {
		return "", false, nil
	}
	return rank.Views[final.chosen], true, nil
}
