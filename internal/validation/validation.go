package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/models"
)

// ErrInvalid wraps every input validation failure.
var ErrInvalid = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func isValidDate(s string) bool {
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

func isValidTimeFormat(s string) bool {
	_, err := time.Parse(constants.TimeFormat, s)
	return err == nil
}

// ValidateTask checks a task before it is inserted.
func ValidateTask(t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("task title cannot be empty")
	}
	if !t.Priority.Valid() {
		return invalid("invalid priority %q (expected low|medium|high)", t.Priority)
	}
	if !t.Status.Valid() {
		return invalid("invalid status %q (expected pending|completed)", t.Status)
	}
	if t.PlannedDate != nil && !isValidDate(*t.PlannedDate) {
		return invalid("invalid planned date %q (expected YYYY-MM-DD)", *t.PlannedDate)
	}
	return ValidateCompletion(t)
}

// ValidateCompletion checks that completed_at is set exactly when the task is
// completed.
func ValidateCompletion(t models.Task) error {
	if t.IsCompleted() != (t.CompletedAt != nil) {
		return invalid("completed_at must be set exactly when the task is completed")
	}
	return nil
}

// ValidatePatch checks the fields a partial update sets.
func ValidatePatch(p models.TaskPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("task title cannot be empty")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("invalid priority %q (expected low|medium|high)", *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("invalid status %q (expected pending|completed)", *p.Status)
	}
	if p.PlannedDate != nil && !p.ClearPlannedDate && !isValidDate(*p.PlannedDate) {
		return invalid("invalid planned date %q (expected YYYY-MM-DD)", *p.PlannedDate)
	}
	if p.CompletedAt != nil && !p.ClearCompletedAt {
		if _, err := time.Parse(time.RFC3339, *p.CompletedAt); err != nil {
			return invalid("invalid completed_at %q (expected RFC3339)", *p.CompletedAt)
		}
	}
	return nil
}

func ValidateProject(p models.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("project name cannot be empty")
	}
	if p.Color != "" && !hexColor.MatchString(p.Color) {
		return invalid("invalid color %q (expected #rgb or #rrggbb)", p.Color)
	}
	return nil
}

// ValidateEvent checks field formats and that the event does not end before
// it starts.
func ValidateEvent(e models.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("event title cannot be empty")
	}
	if !e.Type.Valid() {
		return invalid("invalid event type %q (expected meeting|deadline|presentation)", e.Type)
	}
	if !isValidDate(e.StartDate) {
		return invalid("invalid start date %q (expected YYYY-MM-DD)", e.StartDate)
	}
	if e.EndDate != "" && !isValidDate(e.EndDate) {
		return invalid("invalid end date %q (expected YYYY-MM-DD)", e.EndDate)
	}
	for _, tm := range []string{e.StartTime, e.EndTime} {
		if tm != "" && !isValidTimeFormat(tm) {
			return invalid("invalid time %q (expected HH:MM)", tm)
		}
	}
	start, end, err := e.Span(time.UTC)
	if err != nil {
		return invalid("%v", err)
	}
	if end.Before(start) {
		return invalid("event ends before it starts")
	}
	return nil
}

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictCompletionMismatch ConflictType = "completion_mismatch"
	ConflictUnknownProject     ConflictType = "unknown_project"
	ConflictDuplicateID        ConflictType = "duplicate_id"
	ConflictInvalidDateTime    ConflictType = "invalid_datetime"
	ConflictEventEndsEarly     ConflictType = "event_ends_before_start"
	ConflictUnknownEventType   ConflictType = "unknown_event_type"
)

// Conflict represents an inconsistency found in stored data
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD format (if applicable)
	Items       []string // titles involved
	TaskIDs     []string // IDs involved, for auto-fixing
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks stored tasks and events for consistency
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateTasks reports completion mismatches, malformed planned dates,
// references to projects that do not exist and duplicate ids.
func (v *Validator) ValidateTasks(tasks []models.Task, projects []models.Project) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	known := make(map[string]bool, len(projects))
	for _, p := range projects {
		known[p.ID] = true
	}

	seen := make(map[string][]string)
	var order []string
	for _, t := range tasks {
		if _, ok := seen[t.ID]; !ok {
			order = append(order, t.ID)
		}
		seen[t.ID] = append(seen[t.ID], t.Title)

		if t.IsCompleted() != (t.CompletedAt != nil) {
			desc := fmt.Sprintf("Task %q is completed but has no completed_at", t.Title)
			if !t.IsCompleted() {
				desc = fmt.Sprintf("Task %q is %s but has completed_at %s", t.Title, t.Status, *t.CompletedAt)
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictCompletionMismatch,
				Description: desc,
				Items:       []string{t.Title},
				TaskIDs:     []string{t.ID},
			})
		}

		if t.PlannedDate != nil && !isValidDate(*t.PlannedDate) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("Task %q has invalid planned_date: %s", t.Title, *t.PlannedDate),
				Items:       []string{t.Title},
				TaskIDs:     []string{t.ID},
			})
		}

		if t.ProjectID != nil && !known[*t.ProjectID] {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownProject,
				Description: fmt.Sprintf("Task %q references unknown project %s", t.Title, *t.ProjectID),
				Items:       []string{t.Title},
				TaskIDs:     []string{t.ID},
			})
		}
	}

	for _, id := range order {
		if titles := seen[id]; len(titles) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateID,
				Description: fmt.Sprintf("Task id %s is used %d times", id, len(titles)),
				Items:       titles,
				TaskIDs:     []string{id},
			})
		}
	}

	return result
}

// ValidateEvents reports malformed or inverted events.
func (v *Validator) ValidateEvents(events []models.Event) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	for _, e := range events {
		if !e.Type.Valid() {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownEventType,
				Description: fmt.Sprintf("Event %q has unknown type %q", e.Title, e.Type),
				Date:        e.StartDate,
				Items:       []string{e.Title},
			})
		}

		start, end, err := e.Span(time.UTC)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("Event %q has invalid date/time: %v", e.Title, err),
				Date:        e.StartDate,
				Items:       []string{e.Title},
			})
			continue
		}
		if end.Before(start) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEventEndsEarly,
				Description: fmt.Sprintf("Event %q ends (%s) before it starts (%s)", e.Title, end.Format("2006-01-02 15:04"), start.Format("2006-01-02 15:04")),
				Date:        e.StartDate,
				Items:       []string{e.Title},
			})
		}
	}

	sort.SliceStable(result.Conflicts, func(i, j int) bool {
		return result.Conflicts[i].Date < result.Conflicts[j].Date
	})
	return result
}

// AutoFixCompletion repairs completion mismatches through updateFunc: a
// completed task without completed_at gets one stamped at now, a pending task
// with completed_at has it cleared.
func AutoFixCompletion(conflicts []Conflict, tasks []models.Task, now time.Time, updateFunc func(id string, patch models.TaskPatch) error) []FixAction {
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var actions []FixAction
	for _, c := range conflicts {
		if c.Type != ConflictCompletionMismatch || len(c.TaskIDs) != 1 {
			continue
		}
		t, ok := byID[c.TaskIDs[0]]
		if !ok {
			continue
		}

		var patch models.TaskPatch
		var action string
		if t.IsCompleted() {
			ts := now.UTC().Format(time.RFC3339)
			patch.CompletedAt = &ts
			action = fmt.Sprintf("Stamped completed_at on %q", t.Title)
		} else {
			patch.ClearCompletedAt = true
			action = fmt.Sprintf("Cleared completed_at on %q", t.Title)
		}

		if err := updateFunc(t.ID, patch); err != nil {
			action = fmt.Sprintf("Failed to fix %q: %v", t.Title, err)
		}
		actions = append(actions, FixAction{Action: action, SourceConflict: c})
	}
	return actions
}
