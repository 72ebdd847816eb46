package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/storage/sqlite"
	"github.com/julianstephens/weekplan/internal/storage/storagetest"
)

type staticUser struct{ user models.User }

func (s staticUser) CurrentUser(context.Context) (models.User, error) { return s.user, nil }

var wednesday = time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC)

func setupModel(t *testing.T) (Model, *planner.Service) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "tui.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := storagetest.NewUser(t, store)
	svc := planner.NewService(store, staticUser{user: user}, nil, notify.NewLocalizer("nl"))

	m := NewModel(context.Background(), svc, time.UTC)
	m.now = func() time.Time { return wednesday }
	m.board = planner.NewBoard(wednesday, m.loc)
	m.dayPanel.ProjectName = m.board.ProjectName
	m.cursor = todayIndex(wednesday)
	return m, svc
}

// run feeds msg to the model and drops the returned command.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTodayIndex(t *testing.T) {
	tests := []struct {
		day  time.Time
		want int
	}{
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 0},
		{wednesday, 2},
		{time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), 6},
	}
	for _, tt := range tests {
		if got := todayIndex(tt.day); got != tt.want {
			t.Errorf("todayIndex(%s) = %d, want %d", tt.day.Weekday(), got, tt.want)
		}
	}
}

func TestNavigation(t *testing.T) {
	m, _ := setupModel(t)

	m = run(t, m, press("]"))
	if got := m.board.Window().Keys()[0]; got != "2024-01-22" {
		t.Errorf("after ], week starts %s", got)
	}
	m = run(t, m, press("["))
	m = run(t, m, press("["))
	if got := m.board.Window().Keys()[0]; got != "2024-01-08" {
		t.Errorf("after [[, week starts %s", got)
	}
	m = run(t, m, press("t"))
	if got := m.board.Window().Keys()[0]; got != "2024-01-15" || m.cursor != 2 {
		t.Errorf("after t, week starts %s cursor %d", got, m.cursor)
	}

	m.cursor = 6
	m = run(t, m, press("right"))
	if got := m.board.Window().Keys()[0]; got != "2024-01-22" || m.cursor != 0 {
		t.Errorf("right past sunday: week %s cursor %d", got, m.cursor)
	}
	m = run(t, m, press("left"))
	if got := m.board.Window().Keys()[0]; got != "2024-01-15" || m.cursor != 6 {
		t.Errorf("left past monday: week %s cursor %d", got, m.cursor)
	}
}

func TestLoadAndToggle(t *testing.T) {
	m, svc := setupModel(t)
	task, err := svc.CreateTask(context.Background(), planner.TaskInput{Title: "Deploy", PlannedDate: "2024-01-17"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	m = run(t, m, m.refresh()())
	if m.loading || len(m.board.Tasks) != 1 {
		t.Fatalf("after load: loading %v, tasks %d", m.loading, len(m.board.Tasks))
	}
	if !strings.Contains(m.View(), "Deploy") {
		t.Error("week view does not show the task")
	}

	m = run(t, m, press("enter"))
	if m.state != StateDay {
		t.Fatalf("enter did not open the day, state %d", m.state)
	}
	if sel, ok := m.dayPanel.Selected(); !ok || sel.ID != task.ID {
		t.Fatalf("day panel selection = %+v", sel)
	}

	next, cmd := m.Update(press("space"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("space produced no command")
	}
	m = run(t, m, cmd())
	if !m.board.Tasks[0].IsCompleted() {
		t.Error("task not completed on the board")
	}
	if !strings.Contains(m.celebration, "Goed gedaan!") {
		t.Errorf("celebration = %q", m.celebration)
	}

	_, cmd = m.Update(press("space"))
	m = run(t, m, cmd())
	if m.board.Tasks[0].IsCompleted() || m.board.Tasks[0].CompletedAt != nil {
		t.Errorf("second toggle left %+v", m.board.Tasks[0])
	}

	m = run(t, m, press("esc"))
	if m.state != StateWeek {
		t.Errorf("esc did not return to the week, state %d", m.state)
	}
}

func TestFailedToggleShowsNotice(t *testing.T) {
	m, _ := setupModel(t)
	m = run(t, m, m.toggleTask("missing")())
	if m.notice == nil || !m.notice.IsError() {
		t.Fatalf("notice = %+v", m.notice)
	}
	if !strings.Contains(m.View(), "Fout bij voltooien taak") {
		t.Error("view does not show the failure")
	}

	m = run(t, m, clearNoticeMsg{seq: m.noticeSeq - 1})
	if m.notice == nil {
		t.Error("stale clear removed the notice")
	}
	m = run(t, m, clearNoticeMsg{seq: m.noticeSeq})
	if m.notice != nil {
		t.Error("notice not cleared")
	}
}

func TestAddFormDefaultsToSelectedDay(t *testing.T) {
	m, _ := setupModel(t)
	m.cursor = 4
	m = run(t, m, press("a"))
	if m.state != StateAddTask || m.taskForm == nil {
		t.Fatalf("a did not open the form, state %d", m.state)
	}
	if m.taskForm.PlannedDate != "2024-01-19" {
		t.Errorf("planned date default = %q", m.taskForm.PlannedDate)
	}
	m = run(t, m, press("esc"))
	if m.state != StateWeek || m.form != nil {
		t.Errorf("esc did not close the form, state %d", m.state)
	}
}

func TestFormPatch(t *testing.T) {
	project := "p1"
	date := "2024-01-17"
	orig := models.Task{
		ID: "t", Title: "Old", Priority: models.PriorityLow, Status: models.StatusPending,
		ProjectID: &project, PlannedDate: &date,
	}

	fm := formFromTask(orig)
	if p := fm.Patch(orig); !p.IsEmpty() {
		t.Errorf("unchanged form produced %+v", p)
	}

	fm.Title = "New"
	fm.ProjectID = ""
	fm.PlannedDate = ""
	fm.Status = models.StatusCompleted
	p := fm.Patch(orig)
	if p.Title == nil || *p.Title != "New" || !p.ClearProjectID || !p.ClearPlannedDate || p.Status == nil {
		t.Errorf("Patch() = %+v", p)
	}
	if p.Priority != nil {
		t.Error("unchanged priority in patch")
	}
}
