package models

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority accepts a priority name in any case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q (expected low|medium|high)", s)
	}
	return p, nil
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q (expected pending|completed)", s)
	}
	return st, nil
}

type Task struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	ProjectID   *string    `json:"project_id" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Priority    Priority   `json:"priority" db:"priority"`
	Status      TaskStatus `json:"status" db:"status"`
	PlannedDate *string    `json:"planned_date" db:"planned_date"` // YYYY-MM-DD
	CompletedAt *string    `json:"completed_at" db:"completed_at"` // RFC3339 timestamp
	CreatedAt   string     `json:"created_at" db:"created_at"`     // RFC3339 timestamp
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Planned returns the raw planned date, or "" when the task is unplanned.
func (t Task) Planned() string {
	if t.PlannedDate == nil {
		return ""
	}
	return *t.PlannedDate
}

// ToggleCompletion returns the patch that flips the task between pending and
// completed. Completing stamps completedAt; reopening clears it.
func (t Task) ToggleCompletion(now time.Time) TaskPatch {
	if t.IsCompleted() {
		status := StatusPending
		return TaskPatch{Status: &status, ClearCompletedAt: true}
	}
	status := StatusCompleted
	ts := now.UTC().Format(time.RFC3339)
	return TaskPatch{Status: &status, CompletedAt: &ts}
}

// TaskPatch describes a partial task update. Nil pointers leave a column
// untouched; the Clear flags write NULL.
type TaskPatch struct {
	Title            *string     `json:"title,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Priority         *Priority   `json:"priority,omitempty"`
	Status           *TaskStatus `json:"status,omitempty"`
	ProjectID        *string     `json:"project_id,omitempty"`
	PlannedDate      *string     `json:"planned_date,omitempty"`
	CompletedAt      *string     `json:"completed_at,omitempty"`
	ClearProjectID   bool        `json:"-"`
	ClearPlannedDate bool        `json:"-"`
	ClearCompletedAt bool        `json:"-"`
}

// IsEmpty reports whether the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil &&
		p.ProjectID == nil && p.PlannedDate == nil && p.CompletedAt == nil &&
		!p.ClearProjectID && !p.ClearPlannedDate && !p.ClearCompletedAt
}

// Apply merges the patch into t in place.
func (t *Task) Apply(p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearProjectID {
		t.ProjectID = nil
	} else if p.ProjectID != nil {
		v := *p.ProjectID
		t.ProjectID = &v
	}
	if p.ClearPlannedDate {
		t.PlannedDate = nil
	} else if p.PlannedDate != nil {
		v := *p.PlannedDate
		t.PlannedDate = &v
	}
	if p.ClearCompletedAt {
		t.CompletedAt = nil
	} else if p.CompletedAt != nil {
		v := *p.CompletedAt
		t.CompletedAt = &v
	}
}
