// Package weekgrid renders the seven-column week overview.
package weekgrid

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/planner"
)

const minCellWidth = 12

var (
	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	todayCellStyle = cellStyle.
			BorderForeground(lipgloss.Color("205"))

	selectedCellStyle = cellStyle.
				BorderForeground(lipgloss.Color("214")).
				BorderStyle(lipgloss.ThickBorder())

	dayNameStyle = lipgloss.NewStyle().Bold(true)

	todayNameStyle = dayNameStyle.Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	moreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)
)

// Model holds what the grid needs to draw itself.
type Model struct {
	Days     []planner.DayView
	Selected int
	Width    int
	// Empty is shown in a cell with nothing planned.
	Empty string
}

// CellWidth is the inner width of one day column for the given total width.
func CellWidth(total int) int {
	// Each cell adds two border columns and two padding columns.
	w := total/7 - 4
	if w < minCellWidth {
		return minCellWidth
	}
	return w
}

func (m Model) View() string {
	width := CellWidth(m.Width)
	cells := make([]string, len(m.Days))
	height := 0
	for i, d := range m.Days {
		cells[i] = renderCell(d, width, m.Empty)
		if h := lipgloss.Height(cells[i]); h > height {
			height = h
		}
	}

	cols := make([]string, len(m.Days))
	for i, d := range m.Days {
		style := cellStyle
		switch {
		case i == m.Selected:
			style = selectedCellStyle
		case d.IsToday:
			style = todayCellStyle
		}
		cols[i] = style.Width(width + 2).Height(height).Render(cells[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderCell(d planner.DayView, width int, empty string) string {
	nameStyle := dayNameStyle
	if d.IsToday {
		nameStyle = todayNameStyle
	}
	lines := []string{
		nameStyle.Render(Truncate(d.Name, width)),
		labelStyle.Render(d.Label),
		"",
	}

	if d.Empty() {
		lines = append(lines, labelStyle.Render(Truncate(empty, width)))
		return strings.Join(lines, "\n")
	}

	for _, t := range d.PreviewTasks {
		lines = append(lines, TaskLine(t, width))
	}
	if d.MoreTasks > 0 {
		lines = append(lines, moreStyle.Render(Truncate(d.MoreTasksLabel, width)))
	}
	for _, e := range d.PreviewEvents {
		lines = append(lines, eventStyle.Render(Truncate(EventLabel(e), width)))
	}
	if d.MoreEvents > 0 {
		lines = append(lines, moreStyle.Render(Truncate(d.MoreEventsLabel, width)))
	}
	return strings.Join(lines, "\n")
}

// TaskLine renders a task with its completion mark.
func TaskLine(t models.Task, width int) string {
	if t.IsCompleted() {
		return doneStyle.Render(Truncate("✓ "+t.Title, width))
	}
	return Truncate("• "+t.Title, width)
}

// EventLabel prefixes an event title with its start time when it has one.
func EventLabel(e models.Event) string {
	if e.StartTime == "" {
		return e.Title
	}
	return e.StartTime + " " + e.Title
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
