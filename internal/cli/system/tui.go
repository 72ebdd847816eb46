package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireUser(); err != nil {
		logger.Warn("TUI not started", "error", err)
		return err
	}

	// The model records notices per command, so the service sink stays quiet.
	svc := ctx.Planner(&notify.Recorder{})
	p := tea.NewProgram(tui.NewModel(ctx.Background(), svc, ctx.Location()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
