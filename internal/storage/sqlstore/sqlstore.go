// Package sqlstore implements the data half of storage.Provider on top of
// sqlx. The sqlite and postgres backends embed it and add their own
// connection lifecycle.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/storage"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// Settings

func (s *Store) GetSettings() (models.Settings, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.Select(&rows, "SELECT key, value FROM settings"); err != nil {
		return models.Settings{}, err
	}
	if len(rows) == 0 {
		return models.Settings{}, fmt.Errorf("settings: %w", storage.ErrNotFound)
	}
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		m[r.Key] = r.Value
	}
	return models.MapToSettings(m), nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := tx.Rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	for k, v := range models.SettingsToMap(settings) {
		if _, err := tx.Exec(q, k, v); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Users

const userColumns = "id, email, password_hash, created_at"

func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (:id, :email, :password_hash, :created_at)`, u)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if err != nil {
		return models.User{}, notFound(err, "user "+id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind("SELECT "+userColumns+" FROM users WHERE lower(email) = lower(?)"), email)
	if err != nil {
		return models.User{}, notFound(err, "user "+email)
	}
	return u, nil
}

func (s *Store) LinkIdentity(ctx context.Context, id models.Identity) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO identities (provider, subject, user_id, email, created_at)
VALUES (:provider, :subject, :user_id, :email, :created_at)
ON CONFLICT (provider, subject) DO UPDATE SET email = excluded.email`, id)
	if err != nil {
		return fmt.Errorf("failed to link %s identity: %w", id.Provider, err)
	}
	return nil
}

func (s *Store) GetIdentity(ctx context.Context, provider, subject string) (models.Identity, error) {
	var id models.Identity
	err := s.db.GetContext(ctx, &id, s.db.Rebind(
		"SELECT provider, subject, user_id, email, created_at FROM identities WHERE provider = ? AND subject = ?"),
		provider, subject)
	if err != nil {
		return models.Identity{}, notFound(err, provider+" identity")
	}
	return id, nil
}

// Tasks

const taskColumns = "id, user_id, project_id, title, description, priority, status, planned_date, completed_at, created_at"

func (s *Store) ListTasks(ctx context.Context, owner string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY planned_date ASC NULLS LAST, created_at ASC"),
		owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, owner, id string) (models.Task, error) {
	var t models.Task
	err := s.db.GetContext(ctx, &t, s.db.Rebind(
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? AND id = ?"), owner, id)
	if err != nil {
		return models.Task{}, notFound(err, "task "+id)
	}
	return t, nil
}

func (s *Store) InsertTask(ctx context.Context, t models.Task) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
VALUES (:id, :user_id, :project_id, :title, :description, :priority, :status, :planned_date, :completed_at, :created_at)`, t)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateTask writes only the columns the patch names and returns the
// resulting row.
func (s *Store) UpdateTask(ctx context.Context, owner, id string, patch models.TaskPatch) (models.Task, error) {
	sets, args := taskAssignments(patch)
	if len(sets) == 0 {
		return s.GetTask(ctx, owner, id)
	}
	args = append(args, owner, id)
	q := s.db.Rebind("UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE user_id = ? AND id = ?")

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return s.GetTask(ctx, owner, id)
}

func taskAssignments(p models.TaskPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Priority != nil {
		add("priority", string(*p.Priority))
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	switch {
	case p.ClearProjectID:
		sets = append(sets, "project_id = NULL")
	case p.ProjectID != nil:
		add("project_id", *p.ProjectID)
	}
	switch {
	case p.ClearPlannedDate:
		sets = append(sets, "planned_date = NULL")
	case p.PlannedDate != nil:
		add("planned_date", *p.PlannedDate)
	}
	switch {
	case p.ClearCompletedAt:
		sets = append(sets, "completed_at = NULL")
	case p.CompletedAt != nil:
		add("completed_at", *p.CompletedAt)
	}
	return sets, args
}

// Projects

const projectColumns = "id, user_id, name, description, color, created_at"

func (s *Store) ListProjects(ctx context.Context, owner string) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.SelectContext(ctx, &projects, s.db.Rebind(
		"SELECT "+projectColumns+" FROM projects WHERE user_id = ? ORDER BY name ASC"), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, owner, id string) (models.Project, error) {
	var p models.Project
	err := s.db.GetContext(ctx, &p, s.db.Rebind(
		"SELECT "+projectColumns+" FROM projects WHERE user_id = ? AND id = ?"), owner, id)
	if err != nil {
		return models.Project{}, notFound(err, "project "+id)
	}
	return p, nil
}

func (s *Store) InsertProject(ctx context.Context, p models.Project) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO projects (`+projectColumns+`)
VALUES (:id, :user_id, :name, :description, :color, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// Events

const eventColumns = "id, user_id, title, description, start_date, start_time, end_date, end_time, type"

func (s *Store) ListEvents(ctx context.Context, owner string) ([]models.Event, error) {
	events := []models.Event{}
	err := s.db.SelectContext(ctx, &events, s.db.Rebind(
		"SELECT "+eventColumns+" FROM events WHERE user_id = ? ORDER BY start_date ASC, start_time ASC"), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *Store) InsertEvent(ctx context.Context, e models.Event) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
VALUES (:id, :user_id, :title, :description, :start_date, :start_time, :end_date, :end_time, :type)`, e)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// EnsureDefaultSettings fills in any setting that is not stored yet.
func (s *Store) EnsureDefaultSettings() error {
	settings, err := s.GetSettings()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	before := settings
	models.ApplyDefaultSettings(&settings)
	if err == nil && before == settings {
		return nil
	}
	if err := s.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save default settings: %w", err)
	}
	return nil
}
