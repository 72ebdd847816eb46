package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/storage/sqlite"
	"github.com/julianstephens/weekplan/internal/storage/storagetest"
	"github.com/julianstephens/weekplan/internal/validation"
)

type fixedUser struct {
	user models.User
	err  error
}

func (f *fixedUser) CurrentUser(context.Context) (models.User, error) {
	return f.user, f.err
}

// brokenStore fails every call.
type brokenStore struct{ Store }

var errBackend = errors.New("backend unavailable")

func (brokenStore) ListTasks(context.Context, string) ([]models.Task, error) { return nil, errBackend }
func (brokenStore) ListProjects(context.Context, string) ([]models.Project, error) {
	return nil, errBackend
}
func (brokenStore) ListEvents(context.Context, string) ([]models.Event, error) {
	return nil, errBackend
}
func (brokenStore) GetTask(context.Context, string, string) (models.Task, error) {
	return models.Task{}, errBackend
}
func (brokenStore) InsertTask(context.Context, models.Task) error { return errBackend }

func ptr[T any](v T) *T { return &v }

func setupService(t *testing.T) (*Service, *fixedUser, *notify.Recorder) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "planner.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	users := &fixedUser{user: storagetest.NewUser(t, store)}
	rec := &notify.Recorder{}
	svc := NewService(store, users, rec, notify.NewLocalizer("nl"))
	svc.now = func() time.Time { return time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC) }
	return svc, users, rec
}

func TestCreateTask(t *testing.T) {
	svc, users, _ := setupService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, TaskInput{Title: " Plan sprint ", PlannedDate: "2024-01-17"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.UserID != users.user.ID {
		t.Errorf("CreateTask() owner = %q, want %q", task.UserID, users.user.ID)
	}
	if task.Title != "Plan sprint" || task.Priority != models.PriorityMedium || task.Status != models.StatusPending {
		t.Errorf("CreateTask() = %+v", task)
	}

	tasks, err := svc.FetchTasks(ctx)
	if err != nil || len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("FetchTasks() = %+v, %v", tasks, err)
	}
}

func TestCreateTaskErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   TaskInput
		noUser  bool
		wantErr error
		wantMsg string
	}{
		{name: "no session", input: TaskInput{Title: "x"}, noUser: true, wantErr: auth.ErrNoSession, wantMsg: "Fout bij aanmaken taak"},
		{name: "empty title", input: TaskInput{Title: " "}, wantErr: validation.ErrInvalid, wantMsg: "Ongeldige invoer"},
		{name: "bad priority", input: TaskInput{Title: "x", Priority: "urgent"}, wantErr: validation.ErrInvalid},
		{name: "bad date", input: TaskInput{Title: "x", PlannedDate: "next week"}, wantErr: validation.ErrInvalid},
		{name: "unknown project", input: TaskInput{Title: "x", ProjectID: "nope"}, wantErr: validation.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, rec := setupService(t)
			if tt.noUser {
				users.err = auth.ErrNoSession
			}
			_, err := svc.CreateTask(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateTask() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.noUser && err.Error() != "no user logged in" {
				t.Errorf("CreateTask() error text = %q", err.Error())
			}
			n, ok := rec.Last()
			if !ok || !n.IsError() {
				t.Fatalf("expected destructive notice, got %+v", n)
			}
			if tt.wantMsg != "" && n.Title != tt.wantMsg {
				t.Errorf("notice title = %q, want %q", n.Title, tt.wantMsg)
			}
		})
	}
}

func TestCreateTaskWithProject(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, ProjectInput{Name: "Werk", Color: "#3b82f6"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := svc.CreateTask(ctx, TaskInput{Title: "x", ProjectID: p.ID, Priority: "HIGH"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ProjectID == nil || *task.ProjectID != p.ID || task.Priority != models.PriorityHigh {
		t.Errorf("CreateTask() = %+v", task)
	}
}

func TestToggleCompletionTwice(t *testing.T) {
	svc, _, rec := setupService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, TaskInput{Title: "Ship it"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	done, completed, err := svc.ToggleCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if !completed || done.Status != models.StatusCompleted || done.CompletedAt == nil {
		t.Errorf("first toggle = %+v, completed %v", done, completed)
	}
	if n, _ := rec.Last(); n.Title != "Goed gedaan!" {
		t.Errorf("celebration notice = %+v", n)
	}

	back, completed, err := svc.ToggleCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("second ToggleCompletion() error = %v", err)
	}
	if completed || back.Status != models.StatusPending || back.CompletedAt != nil {
		t.Errorf("second toggle = %+v, completed %v", back, completed)
	}
}

func TestToggleCompletionMissingTask(t *testing.T) {
	svc, _, rec := setupService(t)
	if _, _, err := svc.ToggleCompletion(context.Background(), "missing"); err == nil {
		t.Fatal("ToggleCompletion() on missing task should fail")
	}
	if n, _ := rec.Last(); n.Title != "Fout bij voltooien taak" {
		t.Errorf("notice = %+v", n)
	}
}

func TestChangeStatus(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, TaskInput{Title: "x"})

	got, err := svc.ChangeStatus(ctx, task.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if got.CompletedAt == nil {
		t.Error("ChangeStatus(completed) left completed_at empty")
	}
	stamp := *got.CompletedAt

	// Re-completing keeps the original stamp.
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	got, err = svc.ChangeStatus(ctx, task.ID, models.StatusCompleted)
	if err != nil || got.CompletedAt == nil || *got.CompletedAt != stamp {
		t.Errorf("ChangeStatus() again = %+v, %v", got, err)
	}

	got, err = svc.ChangeStatus(ctx, task.ID, models.StatusPending)
	if err != nil || got.CompletedAt != nil {
		t.Errorf("ChangeStatus(pending) = %+v, %v", got, err)
	}

	if _, err := svc.ChangeStatus(ctx, task.ID, "archived"); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("ChangeStatus(archived) error = %v", err)
	}
}

func TestEditTask(t *testing.T) {
	svc, _, rec := setupService(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, TaskInput{Title: "Draft", PlannedDate: "2024-01-16"})

	got, err := svc.EditTask(ctx, task.ID, models.TaskPatch{
		Title:            ptr("Final"),
		Priority:         ptr(models.PriorityLow),
		ClearPlannedDate: true,
	})
	if err != nil {
		t.Fatalf("EditTask() error = %v", err)
	}
	if got.Title != "Final" || got.Priority != models.PriorityLow || got.PlannedDate != nil {
		t.Errorf("EditTask() = %+v", got)
	}
	n, _ := rec.Last()
	if n.Title != "Taak bijgewerkt" || n.IsError() {
		t.Errorf("notice = %+v", n)
	}

	got, err = svc.EditTask(ctx, task.ID, models.TaskPatch{Status: ptr(models.StatusCompleted)})
	if err != nil || got.CompletedAt == nil {
		t.Errorf("EditTask(status) = %+v, %v", got, err)
	}

	if _, err := svc.EditTask(ctx, task.ID, models.TaskPatch{Title: ptr("")}); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("EditTask(blank title) error = %v", err)
	}
	if _, err := svc.EditTask(ctx, task.ID, models.TaskPatch{ProjectID: ptr("ghost")}); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("EditTask(unknown project) error = %v", err)
	}
	if n, _ := rec.Last(); !n.IsError() {
		t.Errorf("expected destructive notice, got %+v", n)
	}
}

func TestEditTaskKeepsCompletionConsistent(t *testing.T) {
	svc, _, rec := setupService(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, TaskInput{Title: "Report"})
	done, _, err := svc.ToggleCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}

	tests := []struct {
		name  string
		patch models.TaskPatch
	}{
		{"clear completed_at on a completed task", models.TaskPatch{ClearCompletedAt: true}},
		{"pending with a timestamp", models.TaskPatch{Status: ptr(models.StatusPending), CompletedAt: ptr("2024-01-17T10:00:00Z")}},
		{"completed without a timestamp", models.TaskPatch{Status: ptr(models.StatusCompleted), ClearCompletedAt: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Reset()
			if _, err := svc.EditTask(ctx, task.ID, tt.patch); !errors.Is(err, validation.ErrInvalid) {
				t.Fatalf("EditTask() error = %v, want ErrInvalid", err)
			}
			if n, _ := rec.Last(); n.Title != "Ongeldige invoer" {
				t.Errorf("notice = %+v", n)
			}
			tasks, _ := svc.FetchTasks(ctx)
			if len(tasks) != 1 || !tasks[0].IsCompleted() || tasks[0].CompletedAt == nil || *tasks[0].CompletedAt != *done.CompletedAt {
				t.Errorf("stored task changed: %+v", tasks)
			}
		})
	}

	got, err := svc.EditTask(ctx, task.ID, models.TaskPatch{Status: ptr(models.StatusPending), ClearCompletedAt: true})
	if err != nil || got.IsCompleted() || got.CompletedAt != nil {
		t.Errorf("EditTask(reopen) = %+v, %v", got, err)
	}
}

func TestFetchWithoutSession(t *testing.T) {
	svc, users, rec := setupService(t)
	users.err = auth.ErrNoSession
	ctx := context.Background()

	events, err := svc.FetchEvents(ctx)
	if err != nil || len(events) != 0 {
		t.Errorf("FetchEvents() = %v, %v; want empty, nil", events, err)
	}
	tasks, err := svc.FetchTasks(ctx)
	if err != nil || len(tasks) != 0 {
		t.Errorf("FetchTasks() = %v, %v; want empty, nil", tasks, err)
	}
	if len(rec.Notices()) != 0 {
		t.Errorf("no-session reads emitted notices: %+v", rec.Notices())
	}
}

func TestFetchFailures(t *testing.T) {
	users := &fixedUser{user: models.User{ID: "u1"}}
	rec := &notify.Recorder{}
	svc := NewService(brokenStore{}, users, rec, notify.NewLocalizer("nl"))
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		title string
	}{
		{name: "tasks", call: func() error { _, err := svc.FetchTasks(ctx); return err }, title: "Fout bij ophalen taken"},
		{name: "projects", call: func() error { _, err := svc.FetchProjects(ctx); return err }, title: "Fout bij ophalen projecten"},
		{name: "events", call: func() error { _, err := svc.FetchEvents(ctx); return err }, title: "Fout bij ophalen events"},
		{name: "create", call: func() error { _, err := svc.CreateTask(ctx, TaskInput{Title: "x"}); return err }, title: "Fout bij aanmaken taak"},
		{name: "toggle", call: func() error { _, _, err := svc.ToggleCompletion(ctx, "t1"); return err }, title: "Fout bij voltooien taak"},
		{name: "edit", call: func() error { _, err := svc.EditTask(ctx, "t1", models.TaskPatch{Title: ptr("y")}); return err }, title: "Fout bij bijwerken taak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Reset()
			if err := tt.call(); !errors.Is(err, errBackend) {
				t.Fatalf("error = %v, want %v", err, errBackend)
			}
			n, ok := rec.Last()
			if !ok || n.Title != tt.title || n.Variant != notify.Destructive {
				t.Errorf("notice = %+v, want title %q", n, tt.title)
			}
		})
	}
}

func TestRefreshKeepsBoardOnFailure(t *testing.T) {
	users := &fixedUser{user: models.User{ID: "u1"}}
	svc := NewService(brokenStore{}, users, nil, nil)

	b := NewBoard(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), nil)
	b.SetTasks([]models.Task{{ID: "kept", Title: "kept"}})

	if err := svc.Refresh(context.Background(), b); !errors.Is(err, errBackend) {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(b.Tasks) != 1 || b.Tasks[0].ID != "kept" {
		t.Errorf("board tasks changed after failed refresh: %+v", b.Tasks)
	}
}

func TestCreateEvent(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	e, err := svc.CreateEvent(ctx, EventInput{Title: "Demo", StartDate: "2024-01-18", StartTime: "14:00", EndTime: "15:00", Type: "Presentation"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if e.EndDate != "2024-01-18" || e.Type != models.EventPresentation {
		t.Errorf("CreateEvent() = %+v", e)
	}
	if _, err := svc.CreateEvent(ctx, EventInput{Title: "Bad", StartDate: "2024-01-18", StartTime: "14:00", EndTime: "13:00"}); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("CreateEvent(inverted) error = %v", err)
	}

	b := NewBoard(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), nil)
	if err := svc.Refresh(ctx, b); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(b.Events) != 1 {
		t.Errorf("Refresh() loaded %d events, want 1", len(b.Events))
	}
}
