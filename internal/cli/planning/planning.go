// Package planning holds the project, event and week commands.
package planning

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/weekplan/internal/calendar"
	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/cli/tasks"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/week"
)

type ProjectAddCmd struct {
	Name        string `arg:"" help:"Project name."`
	Description string `help:"Longer description."`
	Color       string `help:"Display color, e.g. #3b82f6."`
}

func (c *ProjectAddCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	defer ctx.PrintNotices(rec)

	p, err := ctx.Planner(rec).CreateProject(ctx.Background(), planner.ProjectInput{
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added project %s (%s)\n", p.Name, cli.ShortID(p.ID))
	return nil
}

type ProjectListCmd struct{}

func (c *ProjectListCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireUser(); err != nil {
		return err
	}
	rec := &notify.Recorder{}
	defer ctx.PrintNotices(rec)

	projects, err := ctx.Planner(rec).FetchProjects(ctx.Background())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		ctx.Println("No projects found")
		return nil
	}
	for _, p := range projects {
		line := fmt.Sprintf("%s  %s", cli.ShortID(p.ID), p.Name)
		if p.Color != "" {
			line += "  " + p.Color
		}
		if p.Description != "" {
			line += "  - " + p.Description
		}
		ctx.Println(line)
	}
	return nil
}

type EventAddCmd struct {
	Title       string `arg:"" help:"Event title."`
	Date        string `help:"Start date (YYYY-MM-DD)." required:""`
	Start       string `help:"Start time (HH:MM). Omit for an all-day event."`
	EndDate     string `help:"End date (YYYY-MM-DD). Defaults to the start date."`
	End         string `help:"End time (HH:MM)."`
	Type        string `help:"Event type: meeting, deadline or presentation." default:"meeting" enum:"meeting,deadline,presentation"`
	Description string `help:"Longer description."`
}

func (c *EventAddCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	defer ctx.PrintNotices(rec)

	e, err := ctx.Planner(rec).CreateEvent(ctx.Background(), planner.EventInput{
		Title:       c.Title,
		Description: c.Description,
		StartDate:   c.Date,
		StartTime:   c.Start,
		EndDate:     c.EndDate,
		EndTime:     c.End,
		Type:        c.Type,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added %s %s on %s (%s)\n", e.Type, e.Title, e.StartDate, cli.ShortID(e.ID))
	return nil
}

type EventListCmd struct {
	Week bool `help:"Only events starting in the current week."`
}

func (c *EventListCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireUser(); err != nil {
		return err
	}
	rec := &notify.Recorder{}
	defer ctx.PrintNotices(rec)

	events, err := ctx.Planner(rec).FetchEvents(ctx.Background())
	if err != nil {
		return err
	}
	w := week.Compute(time.Now().In(ctx.Location()))
	shown := 0
	for _, e := range events {
		if c.Week && !w.Contains(e.StartDate) {
			continue
		}
		ctx.Println(FormatEvent(e))
		shown++
	}
	if shown == 0 {
		ctx.Println("No events found")
	}
	return nil
}

// FormatEvent renders "2024-01-15 09:00-10:00  Standup  (meeting)".
func FormatEvent(e models.Event) string {
	when := e.StartDate
	if e.StartTime != "" {
		when += " " + e.StartTime
		if e.EndTime != "" {
			when += "-" + e.EndTime
		}
	}
	if e.EndDate != "" && e.EndDate != e.StartDate {
		when += " → " + e.EndDate
	}
	return fmt.Sprintf("%s  %s  (%s)", when, e.Title, e.Type)
}

// WeekCmd prints the Monday-to-Sunday plan around a date, and can export it
// as an iCalendar file.
type WeekCmd struct {
	Date   string `help:"Any date inside the week (YYYY-MM-DD). Defaults to today."`
	Offset int    `help:"Weeks to move from that date; negative goes back."`
	ICS    string `help:"Also write the week to this .ics file ('-' for stdout)." name:"ics"`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireUser(); err != nil {
		return err
	}
	loc := ctx.Location()
	ref, err := cli.ReferenceDate(c.Date, loc)
	if err != nil {
		return err
	}

	rec := &notify.Recorder{}
	defer ctx.PrintNotices(rec)
	svc := ctx.Planner(rec)
	board := planner.NewBoard(week.Offset(ref, c.Offset), svc.Localizer())
	if err := svc.Refresh(ctx.Background(), board); err != nil {
		return err
	}
	now := time.Now().In(loc)

	if c.ICS == "-" {
		return calendar.Export(ctx.Stdout(), board.Window(), board.Tasks, board.Events, loc, now)
	}

	printWeek(ctx, board, svc.Localizer(), now)

	if c.ICS != "" {
		if err := writeICS(c.ICS, board, loc, now); err != nil {
			return err
		}
		ctx.Printf("Wrote %s\n", c.ICS)
	}
	return nil
}

func printWeek(ctx *cli.Context, board *planner.Board, loc *notify.Localizer, now time.Time) {
	ctx.Println(board.Title())
	for _, d := range board.Week(now) {
		marker := ""
		if d.IsToday {
			marker = " *"
		}
		ctx.Printf("\n%s %s%s\n", d.Name, d.Label, marker)
		if d.Empty() {
			ctx.Printf("  %s\n", loc.T(notify.NothingPlanned))
			continue
		}
		if len(d.Events) > 0 {
			ctx.Printf("  %s\n", loc.T(notify.EventsHeading))
			for _, e := range d.Events {
				ctx.Printf("    %s\n", strings.TrimPrefix(FormatEvent(e), e.StartDate+" "))
			}
		}
		if len(d.Tasks) > 0 {
			ctx.Printf("  %s\n", loc.T(notify.TasksHeading))
			for _, t := range d.Tasks {
				ctx.Printf("    %s\n", tasks.FormatTask(t, board.ProjectName(t.ProjectID), loc, false))
			}
		}
	}
}

func writeICS(path string, board *planner.Board, loc *time.Location, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := calendar.Export(f, board.Window(), board.Tasks, board.Events, loc, now); err != nil {
		f.Close()
		return fmt.Errorf("failed to export calendar: %w", err)
	}
	return f.Close()
}
