package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/week"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.dayPanel.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case boardLoadedMsg:
		m.loading = false
		m.board.SetTasks(msg.tasks)
		m.board.SetProjects(msg.projects)
		m.board.SetEvents(msg.events)
		m.syncPanel()
		if msg.err != nil {
			logger.Warn("Board refresh failed", "error", msg.err)
		}
		return m, m.showNotices(msg.notices)

	case taskSavedMsg:
		if msg.err == nil {
			if msg.created {
				m.board.AddTask(msg.task)
			} else {
				m.board.ReplaceTask(msg.task)
			}
			m.syncPanel()
		}
		return m, m.showNotices(msg.notices)

	case taskToggledMsg:
		if msg.err != nil {
			return m, m.showNotices(msg.notices)
		}
		m.board.ReplaceTask(msg.task)
		m.syncPanel()
		if msg.completed && len(msg.notices) > 0 {
			return m, m.celebrate(msg.notices[len(msg.notices)-1])
		}
		return m, m.showNotices(msg.notices)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case clearCelebrationMsg:
		if msg.seq == m.celebSeq {
			m.celebration = ""
		}
		return m, nil
	}

	if m.state == StateAddTask || m.state == StateEditTask {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	case key.Matches(keyMsg, m.keys.Add):
		return m.openAddForm()
	case key.Matches(keyMsg, m.keys.Left):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(keyMsg, m.keys.Right):
		m.moveCursor(1)
		return m, nil
	}

	if m.state == StateDay {
		return m.updateDay(keyMsg)
	}
	return m.updateWeek(keyMsg)
}

func (m Model) updateWeek(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevWeek):
		m.board.Navigate(week.Previous)
	case key.Matches(msg, m.keys.NextWeek):
		m.board.Navigate(week.Next)
	case key.Matches(msg, m.keys.Today):
		now := m.now()
		m.board.Today(now)
		m.cursor = todayIndex(now)
	case key.Matches(msg, m.keys.Open):
		m.state = StateDay
	}
	m.board.Select(m.cursor)
	m.syncPanel()
	return m, nil
}

func (m Model) updateDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = StateWeek
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.dayPanel.Selected(); ok {
			return m, m.toggleTask(t.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.dayPanel.Selected(); ok {
			return m.openEditForm(t)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.dayPanel, cmd = m.dayPanel.Update(msg)
	return m, cmd
}

// moveCursor steps the selected day, rolling into the neighbouring week at
// either edge.
func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	switch {
	case m.cursor < 0:
		m.board.Navigate(week.Previous)
		m.cursor = constants.DaysPerWeek - 1
	case m.cursor >= constants.DaysPerWeek:
		m.board.Navigate(week.Next)
		m.cursor = 0
	}
	m.board.Select(m.cursor)
	m.syncPanel()
}

func (m *Model) syncPanel() {
	if day, ok := m.board.Day(m.cursor, m.now()); ok {
		m.dayPanel.SetDay(day)
	}
}

func (m Model) openAddForm() (tea.Model, tea.Cmd) {
	fm := &TaskFormModel{Priority: models.PriorityMedium, Status: models.StatusPending}
	if keys := m.board.Window().Keys(); m.cursor >= 0 && m.cursor < len(keys) {
		fm.PlannedDate = keys[m.cursor]
	}
	m.taskForm = fm
	m.editingTask = nil
	m.form = NewTaskForm(fm, m.board.Projects, m.loc.T(notify.NoProject))
	m.formReturn = m.state
	m.state = StateAddTask
	return m, m.form.Init()
}

func (m Model) openEditForm(t models.Task) (tea.Model, tea.Cmd) {
	fm := formFromTask(t)
	m.taskForm = fm
	m.editingTask = &t
	m.form = NewEditForm(fm, m.board.Projects, m.loc.T(notify.NoProject))
	m.formReturn = m.state
	m.state = StateEditTask
	return m, m.form.Init()
}

func (m Model) closeForm() Model {
	m.state = m.formReturn
	m.form = nil
	m.taskForm = nil
	m.editingTask = nil
	return m
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		var save tea.Cmd
		if m.state == StateAddTask {
			save = m.createTask(m.taskForm.Input())
		} else if patch := m.taskForm.Patch(*m.editingTask); !patch.IsEmpty() {
			save = m.editTask(m.editingTask.ID, patch)
		}
		return m.closeForm(), tea.Batch(cmd, save)
	case huh.StateAborted:
		return m.closeForm(), cmd
	}
	return m, cmd
}

func (m *Model) showNotices(notices []notify.Notice) tea.Cmd {
	if len(notices) == 0 {
		return nil
	}
	n := notices[len(notices)-1]
	m.notice = &n
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

func (m *Model) celebrate(n notify.Notice) tea.Cmd {
	m.celebration = n.Title + " " + n.Description
	m.celebSeq++
	seq := m.celebSeq
	return tea.Tick(celebrationTimeout, func(time.Time) tea.Msg { return clearCelebrationMsg{seq: seq} })
}
