// Package storagetest holds a conformance suite run against every
// storage.Provider implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func stamp(offset time.Duration) string {
	return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC).Add(offset).Format(time.RFC3339)
}

// NewUser inserts a user with a random email and returns it.
func NewUser(t *testing.T, s storage.Provider) models.User {
	t.Helper()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString()[:8] + "@example.com",
		CreatedAt: stamp(0),
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

// Run exercises s, which must already be initialized.
func Run(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	t.Run("Settings", func(t *testing.T) {
		settings, err := s.GetSettings()
		if err != nil {
			t.Fatalf("GetSettings() error = %v", err)
		}
		if settings.Timezone != constants.DefaultTimezone || settings.Locale != constants.DefaultLocale {
			t.Errorf("default settings = %+v", settings)
		}

		settings.Timezone = "Europe/Amsterdam"
		settings.Locale = "en"
		if err := s.SaveSettings(settings); err != nil {
			t.Fatalf("SaveSettings() error = %v", err)
		}
		got, err := s.GetSettings()
		if err != nil {
			t.Fatalf("GetSettings() error = %v", err)
		}
		if got != settings {
			t.Errorf("GetSettings() = %+v, want %+v", got, settings)
		}
	})

	t.Run("Users", func(t *testing.T) {
		u := NewUser(t, s)

		got, err := s.GetUser(ctx, u.ID)
		if err != nil || got.Email != u.Email {
			t.Fatalf("GetUser() = %+v, %v", got, err)
		}
		if _, err := s.GetUserByEmail(ctx, u.Email); err != nil {
			t.Errorf("GetUserByEmail() error = %v", err)
		}
		if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
		}
		if err := s.CreateUser(ctx, models.User{ID: uuid.NewString(), Email: u.Email, CreatedAt: stamp(0)}); err == nil {
			t.Error("CreateUser() with duplicate email should fail")
		}

		ident := models.Identity{Provider: "google", Subject: uuid.NewString(), UserID: u.ID, Email: u.Email, CreatedAt: stamp(0)}
		if err := s.LinkIdentity(ctx, ident); err != nil {
			t.Fatalf("LinkIdentity() error = %v", err)
		}
		// Relinking is an upsert.
		if err := s.LinkIdentity(ctx, ident); err != nil {
			t.Fatalf("LinkIdentity() twice error = %v", err)
		}
		gotIdent, err := s.GetIdentity(ctx, "google", ident.Subject)
		if err != nil || gotIdent.UserID != u.ID {
			t.Errorf("GetIdentity() = %+v, %v", gotIdent, err)
		}
		if _, err := s.GetIdentity(ctx, "slack", ident.Subject); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetIdentity(slack) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Tasks", func(t *testing.T) {
		owner := NewUser(t, s)
		other := NewUser(t, s)

		tasks := []models.Task{
			{ID: uuid.NewString(), Title: "unplanned", CreatedAt: stamp(0)},
			{ID: uuid.NewString(), Title: "late", PlannedDate: ptr("2024-01-20"), CreatedAt: stamp(time.Minute)},
			{ID: uuid.NewString(), Title: "early b", PlannedDate: ptr("2024-01-15"), CreatedAt: stamp(3 * time.Minute)},
			{ID: uuid.NewString(), Title: "early a", PlannedDate: ptr("2024-01-15"), CreatedAt: stamp(2 * time.Minute)},
		}
		for _, task := range tasks {
			task.UserID = owner.ID
			task.Priority = models.PriorityMedium
			task.Status = models.StatusPending
			if err := s.InsertTask(ctx, task); err != nil {
				t.Fatalf("InsertTask() error = %v", err)
			}
		}

		list, err := s.ListTasks(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListTasks() error = %v", err)
		}
		want := []string{"early a", "early b", "late", "unplanned"}
		if len(list) != len(want) {
			t.Fatalf("ListTasks() returned %d tasks, want %d", len(list), len(want))
		}
		for i, task := range list {
			if task.Title != want[i] {
				t.Errorf("ListTasks()[%d] = %q, want %q", i, task.Title, want[i])
			}
		}
		if list[3].PlannedDate != nil {
			t.Errorf("unplanned task PlannedDate = %v, want nil", *list[3].PlannedDate)
		}

		if others, err := s.ListTasks(ctx, other.ID); err != nil || len(others) != 0 {
			t.Errorf("ListTasks(other) = %d tasks, %v; want none", len(others), err)
		}
		if _, err := s.GetTask(ctx, other.ID, tasks[0].ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetTask() across owners error = %v, want ErrNotFound", err)
		}

		id := tasks[1].ID
		updated, err := s.UpdateTask(ctx, owner.ID, id, models.TaskPatch{
			Title:       ptr("later"),
			Status:      ptr(models.StatusCompleted),
			CompletedAt: ptr(stamp(time.Hour)),
		})
		if err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		if updated.Title != "later" || !updated.IsCompleted() || updated.CompletedAt == nil {
			t.Errorf("UpdateTask() = %+v", updated)
		}
		if updated.Planned() != "2024-01-20" {
			t.Errorf("UpdateTask() touched planned_date: %q", updated.Planned())
		}

		updated, err = s.UpdateTask(ctx, owner.ID, id, models.TaskPatch{
			Status:           ptr(models.StatusPending),
			ClearCompletedAt: true,
			ClearPlannedDate: true,
		})
		if err != nil {
			t.Fatalf("UpdateTask() clear error = %v", err)
		}
		if updated.CompletedAt != nil || updated.PlannedDate != nil {
			t.Errorf("UpdateTask() did not clear columns: %+v", updated)
		}

		if _, err := s.UpdateTask(ctx, other.ID, id, models.TaskPatch{Title: ptr("hijack")}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateTask() across owners error = %v, want ErrNotFound", err)
		}
		if _, err := s.UpdateTask(ctx, owner.ID, "missing", models.TaskPatch{Title: ptr("x")}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateTask(missing) error = %v, want ErrNotFound", err)
		}
		if got, err := s.UpdateTask(ctx, owner.ID, id, models.TaskPatch{}); err != nil || got.Title != "later" {
			t.Errorf("UpdateTask(empty) = %+v, %v", got, err)
		}
	})

	t.Run("Projects", func(t *testing.T) {
		owner := NewUser(t, s)
		for _, name := range []string{"Zeta", "Alpha", "Mid"} {
			p := models.Project{ID: uuid.NewString(), UserID: owner.ID, Name: name, Color: "#3b82f6", CreatedAt: stamp(0)}
			if err := s.InsertProject(ctx, p); err != nil {
				t.Fatalf("InsertProject() error = %v", err)
			}
		}
		list, err := s.ListProjects(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListProjects() error = %v", err)
		}
		want := []string{"Alpha", "Mid", "Zeta"}
		for i, p := range list {
			if p.Name != want[i] {
				t.Errorf("ListProjects()[%d] = %q, want %q", i, p.Name, want[i])
			}
		}
		if _, err := s.GetProject(ctx, owner.ID, list[0].ID); err != nil {
			t.Errorf("GetProject() error = %v", err)
		}
		if _, err := s.GetProject(ctx, owner.ID, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetProject(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Events", func(t *testing.T) {
		owner := NewUser(t, s)
		events := []models.Event{
			{Title: "demo", StartDate: "2024-01-18", StartTime: "14:00", EndDate: "2024-01-18", EndTime: "15:00", Type: models.EventPresentation},
			{Title: "standup", StartDate: "2024-01-15", StartTime: "09:00", EndDate: "2024-01-15", EndTime: "09:15", Type: models.EventMeeting},
		}
		for _, e := range events {
			e.ID = uuid.NewString()
			e.UserID = owner.ID
			if err := s.InsertEvent(ctx, e); err != nil {
				t.Fatalf("InsertEvent() error = %v", err)
			}
		}
		list, err := s.ListEvents(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListEvents() error = %v", err)
		}
		if len(list) != 2 || list[0].Title != "standup" {
			t.Errorf("ListEvents() = %+v", list)
		}
	})

	t.Run("SchemaStatus", func(t *testing.T) {
		current, latest, err := s.SchemaStatus()
		if err != nil {
			t.Fatalf("SchemaStatus() error = %v", err)
		}
		if current != latest || current < 1 {
			t.Errorf("SchemaStatus() = %d, %d", current, latest)
		}
	})
}
