// Package tui is the interactive terminal week planner.
package tui

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/tui/components/daypanel"
)

type SessionState int

const (
	StateWeek SessionState = iota
	StateDay
	StateAddTask
	StateEditTask
)

const (
	noticeTimeout      = 4 * time.Second
	celebrationTimeout = 3 * time.Second
)

type Model struct {
	ctx      context.Context
	svc      *planner.Service
	loc      *notify.Localizer
	board    *planner.Board
	now      func() time.Time
	state    SessionState
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	dayPanel daypanel.Model
	cursor   int // selected day, 0 = Monday
	loading  bool

	form        *huh.Form
	taskForm    *TaskFormModel
	editingTask *models.Task
	formReturn  SessionState

	notice      *notify.Notice
	noticeSeq   int
	celebration string
	celebSeq    int

	quitting bool
	width    int
	height   int
}

// NewModel opens the board on the week containing now in tz.
func NewModel(ctx context.Context, svc *planner.Service, tz *time.Location) Model {
	if tz == nil {
		tz = time.Local
	}
	now := time.Now().In(tz)
	loc := svc.Localizer()
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		svc:      svc,
		loc:      loc,
		board:    planner.NewBoard(now, loc),
		now:      func() time.Time { return time.Now().In(tz) },
		state:    StateWeek,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		dayPanel: daypanel.New(loc),
		cursor:   todayIndex(now),
		loading:  true,
	}
	m.dayPanel.ProjectName = m.board.ProjectName
	return m
}

func todayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateDay:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.Edit, m.keys.Add, m.keys.Back, m.keys.Help}
	default:
		return []key.Binding{m.keys.Left, m.keys.Right, m.keys.PrevWeek, m.keys.NextWeek, m.keys.Open, m.keys.Add, m.keys.Help, m.keys.Quit}
	}
}

func (m Model) FullHelp() [][]key.Binding {
	navigation := []key.Binding{m.keys.Left, m.keys.Right, m.keys.Up, m.keys.Down, m.keys.PrevWeek, m.keys.NextWeek, m.keys.Today}
	actions := []key.Binding{m.keys.Open, m.keys.Toggle, m.keys.Edit, m.keys.Add, m.keys.Refresh}
	global := []key.Binding{m.keys.Back, m.keys.Help, m.keys.Quit}
	return [][]key.Binding{navigation, actions, global}
}

// Messages produced by commands. Each carries the notices the service
// reported while it ran.

type boardLoadedMsg struct {
	tasks    []models.Task
	projects []models.Project
	events   []models.Event
	notices  []notify.Notice
	err      error
}

type taskSavedMsg struct {
	task    models.Task
	created bool
	notices []notify.Notice
	err     error
}

type taskToggledMsg struct {
	task      models.Task
	completed bool
	notices   []notify.Notice
	err       error
}

type clearNoticeMsg struct{ seq int }

type clearCelebrationMsg struct{ seq int }

// refresh reloads the three collections. Refresh leaves a part whose fetch
// failed untouched, so the scratch board starts from copies of what is shown.
func (m Model) refresh() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	scratch := planner.NewBoard(m.board.Reference, m.loc)
	scratch.SetTasks(slices.Clone(m.board.Tasks))
	scratch.SetProjects(slices.Clone(m.board.Projects))
	scratch.SetEvents(slices.Clone(m.board.Events))
	return func() tea.Msg {
		rec := &notify.Recorder{}
		err := svc.WithSink(rec).Refresh(ctx, scratch)
		return boardLoadedMsg{
			tasks:    scratch.Tasks,
			projects: scratch.Projects,
			events:   scratch.Events,
			notices:  rec.Notices(),
			err:      err,
		}
	}
}

func (m Model) createTask(in planner.TaskInput) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		rec := &notify.Recorder{}
		t, err := svc.WithSink(rec).CreateTask(ctx, in)
		return taskSavedMsg{task: t, created: true, notices: rec.Notices(), err: err}
	}
}

func (m Model) editTask(id string, patch models.TaskPatch) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		rec := &notify.Recorder{}
		t, err := svc.WithSink(rec).EditTask(ctx, id, patch)
		return taskSavedMsg{task: t, notices: rec.Notices(), err: err}
	}
}

func (m Model) toggleTask(id string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		rec := &notify.Recorder{}
		t, completed, err := svc.WithSink(rec).ToggleCompletion(ctx, id)
		return taskToggledMsg{task: t, completed: completed, notices: rec.Notices(), err: err}
	}
}
