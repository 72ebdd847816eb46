// Package daypanel shows everything planned on one day and lets the user
// pick a task.
package daypanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/tui/components/weekgrid"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type KeyMap struct {
	Up   key.Binding
	Down key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:   key.NewBinding(key.WithKeys("up", "k")),
		Down: key.NewBinding(key.WithKeys("down", "j")),
	}
}

type Model struct {
	day    planner.DayView
	cursor int
	keys   KeyMap
	loc    *notify.Localizer
	// ProjectName resolves a task's project for display.
	ProjectName func(id *string) string
	width       int
}

func New(loc *notify.Localizer) Model {
	if loc == nil {
		loc = notify.NewLocalizer("")
	}
	return Model{keys: DefaultKeyMap(), loc: loc}
}

// SetDay replaces the shown day, keeping the cursor in range.
func (m *Model) SetDay(d planner.DayView) {
	m.day = d
	if m.cursor >= len(d.Tasks) {
		m.cursor = len(d.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) SetWidth(w int) {
	m.width = w
}

func (m Model) Day() planner.DayView {
	return m.day
}

// Selected returns the task under the cursor.
func (m Model) Selected() (models.Task, bool) {
	if len(m.day.Tasks) == 0 {
		return models.Task{}, false
	}
	return m.day.Tasks[m.cursor], true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.day.Tasks)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s", m.day.Name, m.day.Label)))
	b.WriteString("\n")

	if m.day.Empty() {
		b.WriteString(metaStyle.Render(m.loc.T(notify.NothingPlanned)))
		return b.String()
	}

	width := m.width - 4
	if width < 20 {
		width = 60
	}

	b.WriteString(sectionStyle.Render(m.loc.T(notify.TasksHeading)))
	b.WriteString("\n")
	for i, t := range m.day.Tasks {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		line := weekgrid.TaskLine(t, width)
		meta := string(t.Priority)
		if m.ProjectName != nil {
			if name := m.ProjectName(t.ProjectID); name != "" {
				meta += " · " + name
			}
		}
		b.WriteString(prefix + line + " " + metaStyle.Render("("+meta+")") + "\n")
	}

	if len(m.day.Events) > 0 {
		b.WriteString(sectionStyle.Render(m.loc.T(notify.EventsHeading)))
		b.WriteString("\n")
		for _, e := range m.day.Events {
			line := weekgrid.EventLabel(e)
			if e.EndTime != "" {
				line = fmt.Sprintf("%s-%s %s", e.StartTime, e.EndTime, e.Title)
			}
			b.WriteString("  " + weekgrid.Truncate(line, width) + " " + metaStyle.Render("("+string(e.Type)+")") + "\n")
		}
	}
	return b.String()
}
