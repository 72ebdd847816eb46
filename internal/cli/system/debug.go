package system

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/utils"
	"github.com/julianstephens/weekplan/internal/week"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database path."`
	DumpTask     *DebugDumpTaskCmd     `cmd:"" help:"Dump task data as JSON."`
	DumpWeek     *DebugDumpWeekCmd     `cmd:"" help:"Dump the bucketed week as JSON."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings data as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpTaskCmd struct {
	ID string `arg:"" help:"Task ID or unique ID prefix."`
}

func (cmd *DebugDumpTaskCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	tasks, err := ctx.Planner(rec).FetchTasks(ctx.Background())
	if err != nil {
		ctx.PrintNotices(rec)
		return err
	}
	t, err := cli.ResolveTask(tasks, cmd.ID)
	if err != nil {
		return err
	}
	return printJSON(ctx, t)
}

type DebugDumpWeekCmd struct {
	Date   string `help:"Any date inside the week (YYYY-MM-DD). Defaults to today."`
	Offset int    `help:"Weeks to move from that date."`
}

func (cmd *DebugDumpWeekCmd) Run(ctx *cli.Context) error {
	loc := ctx.Location()
	ref, err := cli.ReferenceDate(cmd.Date, loc)
	if err != nil {
		return err
	}
	rec := &notify.Recorder{}
	svc := ctx.Planner(rec)
	board := planner.NewBoard(week.Offset(ref, cmd.Offset), svc.Localizer())
	if err := svc.Refresh(ctx.Background(), board); err != nil {
		ctx.PrintNotices(rec)
		return err
	}
	return printJSON(ctx, map[string]any{
		"title": board.Title(),
		"start": utils.FormatDate(board.Window().Start()),
		"end":   utils.FormatDate(board.Window().End()),
		"days":  board.Week(time.Now().In(loc)),
	})
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}
