// Package tasks holds the task subcommands.
package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/week"
)

type TaskAddCmd struct {
	Title       string `arg:"" help:"Task title."`
	Description string `help:"Longer description."`
	Priority    string `help:"Priority: low, medium or high." default:"medium" enum:"low,medium,high"`
	Project     string `help:"Project name or ID."`
	Date        string `help:"Planned date (YYYY-MM-DD)."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	svc := ctx.Planner(rec)
	defer ctx.PrintNotices(rec)

	in := planner.TaskInput{
		Title:       c.Title,
		Description: c.Description,
		Priority:    c.Priority,
		PlannedDate: c.Date,
	}
	if c.Project != "" {
		p, err := findProject(ctx, svc, c.Project)
		if err != nil {
			return err
		}
		in.ProjectID = p.ID
	}

	t, err := svc.CreateTask(ctx.Background(), in)
	if err != nil {
		return err
	}
	ctx.Printf("Added task %s (%s)\n", t.Title, cli.ShortID(t.ID))
	return nil
}

func findProject(ctx *cli.Context, svc *planner.Service, ref string) (models.Project, error) {
	projects, err := svc.FetchProjects(ctx.Background())
	if err != nil {
		return models.Project{}, err
	}
	return cli.ResolveProject(projects, ref)
}

func findTask(ctx *cli.Context, svc *planner.Service, ref string) (models.Task, error) {
	if _, err := ctx.RequireUser(); err != nil {
		return models.Task{}, err
	}
	tasks, err := svc.FetchTasks(ctx.Background())
	if err != nil {
		return models.Task{}, err
	}
	return cli.ResolveTask(tasks, ref)
}

type TaskListCmd struct {
	Date    string `help:"Only tasks planned on this date (YYYY-MM-DD)."`
	Week    bool   `help:"Only tasks planned in the current week."`
	Pending bool   `help:"Hide completed tasks."`
	ShowIDs bool   `help:"Show full task IDs." name:"show-ids"`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireUser(); err != nil {
		return err
	}
	rec := &notify.Recorder{}
	svc := ctx.Planner(rec)
	defer ctx.PrintNotices(rec)

	tasks, err := svc.FetchTasks(ctx.Background())
	if err != nil {
		return err
	}
	projects, err := svc.FetchProjects(ctx.Background())
	if err != nil {
		return err
	}

	var window *week.Window
	if c.Week {
		w := week.Compute(today(ctx))
		window = &w
	}
	date := ""
	if c.Date != "" {
		var ok bool
		if date, ok = week.NormalizeDate(c.Date); !ok {
			return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", c.Date)
		}
	}

	board := planner.NewBoard(today(ctx), svc.Localizer())
	board.SetProjects(projects)

	shown := 0
	for _, t := range tasks {
		if c.Pending && t.IsCompleted() {
			continue
		}
		planned, _ := week.NormalizeDate(t.Planned())
		if date != "" && planned != date {
			continue
		}
		if window != nil && (planned == "" || !window.Contains(planned)) {
			continue
		}
		ctx.Println(FormatTask(t, board.ProjectName(t.ProjectID), svc.Localizer(), c.ShowIDs))
		shown++
	}
	if shown == 0 {
		ctx.Println("No tasks found")
	}
	return nil
}

func today(ctx *cli.Context) time.Time {
	return time.Now().In(ctx.Location())
}

// FormatTask renders one listing line:
// "[x] 1a2b3c4d  Title  (high, 2024-01-15, Project)".
func FormatTask(t models.Task, project string, loc *notify.Localizer, fullID bool) string {
	mark := " "
	if t.IsCompleted() {
		mark = "x"
	}
	id := cli.ShortID(t.ID)
	if fullID {
		id = t.ID
	}
	planned := t.Planned()
	if planned == "" {
		planned = loc.T(notify.Unplanned)
	} else if d, ok := week.NormalizeDate(planned); ok {
		planned = d
	}
	details := []string{string(t.Priority), planned}
	if project != "" {
		details = append(details, project)
	}
	return fmt.Sprintf("[%s] %s  %s  (%s)", mark, id, t.Title, strings.Join(details, ", "))
}

type TaskEditCmd struct {
	ID           string  `arg:"" help:"Task ID or unique ID prefix."`
	Title        *string `help:"New title."`
	Description  *string `help:"New description."`
	Priority     *string `help:"New priority: low, medium or high."`
	Project      *string `help:"Project name or ID."`
	Date         *string `help:"Planned date (YYYY-MM-DD)."`
	ClearProject bool    `help:"Remove the task from its project."`
	ClearDate    bool    `help:"Unplan the task."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	svc := ctx.Planner(rec)
	defer ctx.PrintNotices(rec)

	t, err := findTask(ctx, svc, c.ID)
	if err != nil {
		return err
	}

	patch := models.TaskPatch{
		Title:            c.Title,
		Description:      c.Description,
		PlannedDate:      c.Date,
		ClearProjectID:   c.ClearProject,
		ClearPlannedDate: c.ClearDate,
	}
	if c.Priority != nil {
		p, err := models.ParsePriority(*c.Priority)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	if c.Project != nil && !c.ClearProject {
		p, err := findProject(ctx, svc, *c.Project)
		if err != nil {
			return err
		}
		patch.ProjectID = &p.ID
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change; pass at least one flag")
	}

	updated, err := svc.EditTask(ctx.Background(), t.ID, patch)
	if err != nil {
		return err
	}
	ctx.Println(FormatTask(updated, "", svc.Localizer(), false))
	return nil
}

type TaskToggleCmd struct {
	ID string `arg:"" help:"Task ID or unique ID prefix."`
}

func (c *TaskToggleCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	svc := ctx.Planner(rec)
	defer ctx.PrintNotices(rec)

	t, err := findTask(ctx, svc, c.ID)
	if err != nil {
		return err
	}
	updated, _, err := svc.ToggleCompletion(ctx.Background(), t.ID)
	if err != nil {
		return err
	}
	ctx.Println(FormatTask(updated, "", svc.Localizer(), false))
	return nil
}

type TaskStatusCmd struct {
	ID     string `arg:"" help:"Task ID or unique ID prefix."`
	Status string `arg:"" enum:"pending,completed" help:"New status: pending or completed."`
}

func (c *TaskStatusCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	svc := ctx.Planner(rec)
	defer ctx.PrintNotices(rec)

	status, err := models.ParseStatus(c.Status)
	if err != nil {
		return err
	}
	t, err := findTask(ctx, svc, c.ID)
	if err != nil {
		return err
	}
	updated, err := svc.ChangeStatus(ctx.Background(), t.ID, status)
	if err != nil {
		return err
	}
	ctx.Println(FormatTask(updated, "", svc.Localizer(), false))
	return nil
}
