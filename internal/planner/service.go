// Package planner orchestrates task, project and event operations for the
// signed-in user and reports their outcome as notices.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/storage"
	"github.com/julianstephens/weekplan/internal/validation"
)

// Store is the slice of storage.Provider the planner uses.
type Store interface {
	ListTasks(ctx context.Context, owner string) ([]models.Task, error)
	GetTask(ctx context.Context, owner, id string) (models.Task, error)
	InsertTask(ctx context.Context, t models.Task) error
	UpdateTask(ctx context.Context, owner, id string, patch models.TaskPatch) (models.Task, error)
	ListProjects(ctx context.Context, owner string) ([]models.Project, error)
	GetProject(ctx context.Context, owner, id string) (models.Project, error)
	InsertProject(ctx context.Context, p models.Project) error
	ListEvents(ctx context.Context, owner string) ([]models.Event, error)
	InsertEvent(ctx context.Context, e models.Event) error
}

// Users resolves the signed-in user from a request context.
type Users interface {
	CurrentUser(ctx context.Context) (models.User, error)
}

type Service struct {
	store Store
	users Users
	sink  notify.Sink
	loc   *notify.Localizer
	now   func() time.Time
}

func NewService(store Store, users Users, sink notify.Sink, loc *notify.Localizer) *Service {
	if sink == nil {
		sink = notify.Discard
	}
	if loc == nil {
		loc = notify.NewLocalizer("")
	}
	return &Service{store: store, users: users, sink: sink, loc: loc, now: time.Now}
}

// WithSink returns a copy of s reporting to sink. The HTTP layer uses it to
// collect notices per request.
func (s *Service) WithSink(sink notify.Sink) *Service {
	c := *s
	c.sink = sink
	return &c
}

func (s *Service) Localizer() *notify.Localizer {
	return s.loc
}

// fail logs err, reports the localized failure notice and returns err.
func (s *Service) fail(op string, title, desc notify.Key, err error) error {
	logger.Error("Planner operation failed", "op", op, "error", err)
	s.sink.Notify(s.loc.Failure(title, desc))
	return err
}

func (s *Service) invalid(err error) error {
	s.sink.Notify(notify.Notice{
		Title:       s.loc.T(notify.InvalidInput),
		Description: strings.TrimPrefix(err.Error(), validation.ErrInvalid.Error()+": "),
		Variant:     notify.Destructive,
	})
	return err
}

// owner returns the signed-in user's id. ok is false with a nil error when
// nobody is signed in.
func (s *Service) owner(ctx context.Context) (string, bool, error) {
	u, err := s.users.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return "", false, nil
		}
		return "", false, err
	}
	return u.ID, true, nil
}

// FetchTasks lists the user's tasks by planned date (unplanned last), then
// creation time. Without a session it returns nothing.
func (s *Service) FetchTasks(ctx context.Context) ([]models.Task, error) {
	owner, ok, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail("fetch_tasks", notify.FetchTasksFailed, notify.FetchTasksFailedDesc, err)
	}
	if !ok {
		return []models.Task{}, nil
	}
	tasks, err := s.store.ListTasks(ctx, owner)
	if err != nil {
		return nil, s.fail("fetch_tasks", notify.FetchTasksFailed, notify.FetchTasksFailedDesc, err)
	}
	return tasks, nil
}

// FetchProjects lists the user's projects by name.
func (s *Service) FetchProjects(ctx context.Context) ([]models.Project, error) {
	owner, ok, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail("fetch_projects", notify.FetchProjectsFailed, notify.FetchProjectsFailedDesc, err)
	}
	if !ok {
		return []models.Project{}, nil
	}
	projects, err := s.store.ListProjects(ctx, owner)
	if err != nil {
		return nil, s.fail("fetch_projects", notify.FetchProjectsFailed, notify.FetchProjectsFailedDesc, err)
	}
	return projects, nil
}

// FetchEvents lists the user's events by start. Without a session it quietly
// returns nothing.
func (s *Service) FetchEvents(ctx context.Context) ([]models.Event, error) {
	owner, ok, err := s.owner(ctx)
	if err != nil {
		return nil, s.fail("fetch_events", notify.FetchEventsFailed, notify.FetchEventsFailedDesc, err)
	}
	if !ok {
		return []models.Event{}, nil
	}
	events, err := s.store.ListEvents(ctx, owner)
	if err != nil {
		return nil, s.fail("fetch_events", notify.FetchEventsFailed, notify.FetchEventsFailedDesc, err)
	}
	return events, nil
}

// TaskInput is what a user supplies to create a task.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	ProjectID   string `json:"project_id"`
	PlannedDate string `json:"planned_date"`
}

// CreateTask stamps the signed-in user as owner and inserts a pending task.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (models.Task, error) {
	const op = "create_task"
	owner, ok, err := s.owner(ctx)
	if err == nil && !ok {
		err = auth.ErrNoSession
	}
	if err != nil {
		return models.Task{}, s.fail(op, notify.CreateTaskFailed, notify.CreateTaskFailedDesc, err)
	}

	t := models.Task{
		ID:          uuid.NewString(),
		UserID:      owner,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    models.PriorityMedium,
		Status:      models.StatusPending,
		CreatedAt:   s.now().UTC().Format(constants.TimestampFormat),
	}
	if in.Priority != "" {
		t.Priority = models.Priority(strings.ToLower(strings.TrimSpace(in.Priority)))
	}
	if d := strings.TrimSpace(in.PlannedDate); d != "" {
		t.PlannedDate = &d
	}
	if p := strings.TrimSpace(in.ProjectID); p != "" {
		t.ProjectID = &p
	}

	if err := validation.ValidateTask(t); err != nil {
		return models.Task{}, s.invalid(err)
	}
	if t.ProjectID != nil {
		if _, err := s.store.GetProject(ctx, owner, *t.ProjectID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return models.Task{}, s.invalid(fmt.Errorf("%w: unknown project %s", validation.ErrInvalid, *t.ProjectID))
			}
			return models.Task{}, s.fail(op, notify.CreateTaskFailed, notify.CreateTaskFailedDesc, err)
		}
	}

	if err := s.store.InsertTask(ctx, t); err != nil {
		return models.Task{}, s.fail(op, notify.CreateTaskFailed, notify.CreateTaskFailedDesc, err)
	}
	logger.Debug("Task created", "id", t.ID, "owner", owner)
	return t, nil
}

// ToggleCompletion flips a task between pending and completed. completed is
// true when this call completed it.
func (s *Service) ToggleCompletion(ctx context.Context, id string) (task models.Task, completed bool, err error) {
	const op = "toggle_completion"
	owner, err := s.requireOwner(ctx)
	if err != nil {
		return models.Task{}, false, s.fail(op, notify.CompleteTaskFailed, notify.CompleteTaskFailedDesc, err)
	}
	current, err := s.store.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, false, s.fail(op, notify.CompleteTaskFailed, notify.CompleteTaskFailedDesc, err)
	}
	updated, err := s.store.UpdateTask(ctx, owner, id, current.ToggleCompletion(s.now()))
	if err != nil {
		return models.Task{}, false, s.fail(op, notify.CompleteTaskFailed, notify.CompleteTaskFailedDesc, err)
	}
	completed = updated.IsCompleted()
	if completed {
		s.sink.Notify(s.loc.Notice(notify.TaskCompleted, notify.TaskCompletedDesc, notify.Default, updated.Title))
	}
	return updated, completed, nil
}

// ChangeStatus sets only the status, keeping completed_at consistent with it.
func (s *Service) ChangeStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	const op = "change_status"
	if !status.Valid() {
		return models.Task{}, s.invalid(fmt.Errorf("%w: invalid status %q (expected pending|completed)", validation.ErrInvalid, status))
	}
	owner, err := s.requireOwner(ctx)
	if err != nil {
		return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
	}
	current, err := s.store.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
	}
	patch := models.TaskPatch{Status: &status}
	s.reconcileCompletion(current, &patch)
	updated, err := s.store.UpdateTask(ctx, owner, id, patch)
	if err != nil {
		return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
	}
	return updated, nil
}

// EditTask applies a partial update and confirms it with a notice.
func (s *Service) EditTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	const op = "edit_task"
	if err := validation.ValidatePatch(patch); err != nil {
		return models.Task{}, s.invalid(err)
	}
	owner, err := s.requireOwner(ctx)
	if err != nil {
		return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
	}
	current, err := s.store.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
	}
	if patch.ProjectID != nil && !patch.ClearProjectID {
		if _, err := s.store.GetProject(ctx, owner, *patch.ProjectID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return models.Task{}, s.invalid(fmt.Errorf("%w: unknown project %s", validation.ErrInvalid, *patch.ProjectID))
			}
			return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
		}
	}
	s.reconcileCompletion(current, &patch)
	merged := current
	merged.Apply(patch)
	if err := validation.ValidateCompletion(merged); err != nil {
		return models.Task{}, s.invalid(err)
	}

	updated, err := s.store.UpdateTask(ctx, owner, id, patch)
	if err != nil {
		return models.Task{}, s.fail(op, notify.UpdateTaskFailed, notify.UpdateTaskFailedDesc, err)
	}
	s.sink.Notify(s.loc.Notice(notify.TaskUpdated, notify.TaskUpdatedDesc, notify.Default))
	return updated, nil
}

// reconcileCompletion makes a status change carry the matching completed_at
// unless the patch already decides it.
func (s *Service) reconcileCompletion(current models.Task, patch *models.TaskPatch) {
	if patch.Status == nil || patch.CompletedAt != nil || patch.ClearCompletedAt {
		return
	}
	switch *patch.Status {
	case models.StatusCompleted:
		if current.CompletedAt == nil {
			ts := s.now().UTC().Format(time.RFC3339)
			patch.CompletedAt = &ts
		}
	case models.StatusPending:
		if current.CompletedAt != nil {
			patch.ClearCompletedAt = true
		}
	}
}

func (s *Service) requireOwner(ctx context.Context) (string, error) {
	owner, ok, err := s.owner(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", auth.ErrNoSession
	}
	return owner, nil
}

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (models.Project, error) {
	const op = "create_project"
	owner, err := s.requireOwner(ctx)
	if err != nil {
		return models.Project{}, s.fail(op, notify.CreateProjectFailed, notify.CreateProjectFailedDesc, err)
	}
	p := models.Project{
		ID:          uuid.NewString(),
		UserID:      owner,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Color:       strings.TrimSpace(in.Color),
		CreatedAt:   s.now().UTC().Format(constants.TimestampFormat),
	}
	if err := validation.ValidateProject(p); err != nil {
		return models.Project{}, s.invalid(err)
	}
	if err := s.store.InsertProject(ctx, p); err != nil {
		return models.Project{}, s.fail(op, notify.CreateProjectFailed, notify.CreateProjectFailedDesc, err)
	}
	return p, nil
}

type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
	Type        string `json:"type"`
}

func (s *Service) CreateEvent(ctx context.Context, in EventInput) (models.Event, error) {
	const op = "create_event"
	owner, err := s.requireOwner(ctx)
	if err != nil {
		return models.Event{}, s.fail(op, notify.CreateEventFailed, notify.CreateEventFailedDesc, err)
	}
	e := models.Event{
		ID:          uuid.NewString(),
		UserID:      owner,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartDate:   strings.TrimSpace(in.StartDate),
		StartTime:   strings.TrimSpace(in.StartTime),
		EndDate:     strings.TrimSpace(in.EndDate),
		EndTime:     strings.TrimSpace(in.EndTime),
		Type:        models.EventType(strings.ToLower(strings.TrimSpace(in.Type))),
	}
	if e.Type == "" {
		e.Type = models.EventMeeting
	}
	if e.EndDate == "" {
		e.EndDate = e.StartDate
	}
	if err := validation.ValidateEvent(e); err != nil {
		return models.Event{}, s.invalid(err)
	}
	if err := s.store.InsertEvent(ctx, e); err != nil {
		return models.Event{}, s.fail(op, notify.CreateEventFailed, notify.CreateEventFailedDesc, err)
	}
	return e, nil
}

// Refresh reloads all three collections into b. A failed fetch leaves that
// part of the board as it was; the first error is returned.
func (s *Service) Refresh(ctx context.Context, b *Board) error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if tasks, err := s.FetchTasks(ctx); err != nil {
		keep(err)
	} else {
		b.SetTasks(tasks)
	}
	if projects, err := s.FetchProjects(ctx); err != nil {
		keep(err)
	} else {
		b.SetProjects(projects)
	}
	if events, err := s.FetchEvents(ctx); err != nil {
		keep(err)
	} else {
		b.SetEvents(events)
	}
	return firstErr
}
