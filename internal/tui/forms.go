package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/utils"
)

// TaskFormModel backs both the create and the edit form.
type TaskFormModel struct {
	Title       string
	Description string
	Priority    models.Priority
	Status      models.TaskStatus
	ProjectID   string
	PlannedDate string
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func optionalDate(s string) error {
	if strings.TrimSpace(s) == "" || utils.ValidateDateFormat(strings.TrimSpace(s)) {
		return nil
	}
	return fmt.Errorf("use YYYY-MM-DD")
}

func priorityOptions() []huh.Option[models.Priority] {
	return []huh.Option[models.Priority]{
		huh.NewOption("Low", models.PriorityLow),
		huh.NewOption("Medium", models.PriorityMedium),
		huh.NewOption("High", models.PriorityHigh),
	}
}

func projectOptions(projects []models.Project, none string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption(none, "")}
	for _, p := range projects {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}
	return opts
}

// NewTaskForm asks for a new task. The planned date starts on the selected day.
func NewTaskForm(fm *TaskFormModel, projects []models.Project, noProject string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(notBlank("title")),
			huh.NewText().
				Title("Description").
				Value(&fm.Description),
			huh.NewSelect[models.Priority]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&fm.Priority),
			huh.NewSelect[string]().
				Title("Project").
				Options(projectOptions(projects, noProject)...).
				Value(&fm.ProjectID),
			huh.NewInput().
				Title("Planned date").
				Description("YYYY-MM-DD, empty for unplanned").
				Value(&fm.PlannedDate).
				Validate(optionalDate),
		),
	).WithShowHelp(true)
}

// NewEditForm edits an existing task, including its status.
func NewEditForm(fm *TaskFormModel, projects []models.Project, noProject string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(notBlank("title")),
			huh.NewText().
				Title("Description").
				Value(&fm.Description),
			huh.NewSelect[models.Priority]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&fm.Priority),
			huh.NewSelect[models.TaskStatus]().
				Title("Status").
				Options(
					huh.NewOption("Pending", models.StatusPending),
					huh.NewOption("Completed", models.StatusCompleted),
				).
				Value(&fm.Status),
			huh.NewSelect[string]().
				Title("Project").
				Options(projectOptions(projects, noProject)...).
				Value(&fm.ProjectID),
			huh.NewInput().
				Title("Planned date").
				Description("YYYY-MM-DD, empty for unplanned").
				Value(&fm.PlannedDate).
				Validate(optionalDate),
		),
	).WithShowHelp(true)
}

func formFromTask(t models.Task) *TaskFormModel {
	fm := &TaskFormModel{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		PlannedDate: t.Planned(),
	}
	if t.ProjectID != nil {
		fm.ProjectID = *t.ProjectID
	}
	return fm
}

func (fm *TaskFormModel) Input() planner.TaskInput {
	return planner.TaskInput{
		Title:       fm.Title,
		Description: fm.Description,
		Priority:    string(fm.Priority),
		ProjectID:   fm.ProjectID,
		PlannedDate: strings.TrimSpace(fm.PlannedDate),
	}
}

// Patch returns the changes between the form and the original task.
func (fm *TaskFormModel) Patch(orig models.Task) models.TaskPatch {
	var p models.TaskPatch
	if title := strings.TrimSpace(fm.Title); title != orig.Title {
		p.Title = &title
	}
	if desc := strings.TrimSpace(fm.Description); desc != orig.Description {
		p.Description = &desc
	}
	if fm.Priority != orig.Priority {
		pr := fm.Priority
		p.Priority = &pr
	}
	if fm.Status != orig.Status {
		st := fm.Status
		p.Status = &st
	}

	origProject := ""
	if orig.ProjectID != nil {
		origProject = *orig.ProjectID
	}
	if fm.ProjectID != origProject {
		if fm.ProjectID == "" {
			p.ClearProjectID = true
		} else {
			id := fm.ProjectID
			p.ProjectID = &id
		}
	}

	if date := strings.TrimSpace(fm.PlannedDate); date != orig.Planned() {
		if date == "" {
			p.ClearPlannedDate = true
		} else {
			p.PlannedDate = &date
		}
	}
	return p
}
