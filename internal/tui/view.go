package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/tui/components/weekgrid"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddTask, StateEditTask:
		content = docStyle.Render(m.form.View())
	case StateDay:
		content = docStyle.Render(m.dayPanel.View())
	default:
		content = weekgrid.Model{
			Days:     m.board.Week(m.now()),
			Selected: m.cursor,
			Width:    m.width,
			Empty:    m.loc.T(notify.NothingPlanned),
		}.View()
	}

	parts := []string{m.viewHeader()}
	if m.celebration != "" {
		parts = append(parts, celebrationStyle.Render("🎉 "+m.celebration))
	}
	parts = append(parts, content, m.viewNotice(), m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewHeader() string {
	title := titleStyle.Render(m.loc.T(notify.PlanningTitle))
	sub := subtitleStyle.Render(m.board.Title())
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", sub)
	if m.loading {
		header += " " + m.spinner.View()
	}
	return header
}

func (m Model) viewNotice() string {
	if m.notice == nil {
		return ""
	}
	text := m.notice.Title
	if m.notice.Description != "" {
		text += ": " + m.notice.Description
	}
	if m.notice.IsError() {
		return dangerStyle.Render(text)
	}
	return noticeStyle.Render(text)
}
