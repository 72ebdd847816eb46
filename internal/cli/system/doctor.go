package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/keyring"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/serverlock"
	"github.com/julianstephens/weekplan/internal/utils"
	"github.com/julianstephens/weekplan/internal/validation"
)

type DoctorCmd struct {
	Fix bool `help:"Repair completion mismatches in the signed-in user's tasks."`
}

// skipped marks a check that could not run. It is reported with its reason
// and does not fail the command.
type skipped string

func (s skipped) Error() string { return string(s) }

type check struct {
	name string
	// warn checks print a warning instead of failing.
	warn bool
	run  func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	dbReachable := false
	needsDB := func(fn func() error) func() error {
		return func() error {
			if !dbReachable {
				return skipped("database not reachable")
			}
			return fn()
		}
	}

	checks := []check{
		{name: "Database reachable", run: func() error {
			if err := checkDBReachable(ctx); err != nil {
				return err
			}
			dbReachable = true
			return nil
		}},
		{name: "Schema version", run: needsDB(func() error { return checkSchemaVersion(ctx) })},
		{name: "Migrations complete", run: needsDB(func() error { return checkMigrationsComplete(ctx) })},
		{name: "Settings", run: needsDB(func() error { return checkSettings(ctx) })},
		{name: "Data validation", run: needsDB(func() error { return cmd.checkValidation(ctx) })},
		{name: "Clock/timezone", run: func() error { return checkClockTimezone(ctx) }},
		{name: "OS keyring", warn: true, run: checkKeyring},
		{name: "Server", warn: true, run: func() error { return checkServer(ctx) }},
	}

	hasError := false
	for _, c := range checks {
		err := c.run()
		var skip skipped
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &skip):
			ctx.Printf("⊘ %s: SKIPPED (%s)\n", c.name, skip)
		case c.warn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, _, err := ctx.Store.SchemaStatus(); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'weekplan migrate')", current, latest)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	s, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !utils.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("stored timezone %q is not a valid IANA name", s.Timezone)
	}
	if !notify.SupportedLocale(s.Locale) {
		return fmt.Errorf("stored locale %q is not supported (expected nl or en)", s.Locale)
	}
	return nil
}

// checkValidation inspects the signed-in user's data. Rows are owner scoped,
// so without a session there is nothing to look at.
func (cmd *DoctorCmd) checkValidation(ctx *cli.Context) error {
	bg := ctx.Background()
	user, err := ctx.Auth(notify.Discard, "").CurrentUser(bg)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return skipped("not signed in")
		}
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	tasks, err := ctx.Store.ListTasks(bg, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	projects, err := ctx.Store.ListProjects(bg, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get projects: %w", err)
	}
	events, err := ctx.Store.ListEvents(bg, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get events: %w", err)
	}

	v := validation.New()
	taskResult := v.ValidateTasks(tasks, projects)
	eventResult := v.ValidateEvents(events)

	conflicts := taskResult.Conflicts
	if cmd.Fix && taskResult.HasConflicts() {
		fixed := make(map[string]bool)
		actions := validation.AutoFixCompletion(taskResult.Conflicts, tasks, time.Now(), func(id string, patch models.TaskPatch) error {
			if _, err := ctx.Store.UpdateTask(bg, user.ID, id, patch); err != nil {
				return err
			}
			fixed[id] = true
			return nil
		})
		for _, a := range actions {
			ctx.Printf("   %s\n", a.Action)
		}
		var remaining []validation.Conflict
		for _, c := range conflicts {
			if c.Type == validation.ConflictCompletionMismatch && len(c.TaskIDs) == 1 && fixed[c.TaskIDs[0]] {
				continue
			}
			remaining = append(remaining, c)
		}
		conflicts = remaining
	}

	all := validation.ValidationResult{Conflicts: append(conflicts, eventResult.Conflicts...)}
	if all.HasConflicts() {
		return errors.New(all.FormatReport())
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	tz := ctx.Settings().Timezone
	if _, err := utils.LoadLocation(tz); err != nil {
		return fmt.Errorf("cannot load display timezone %q: %w", tz, err)
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; sign-in and stored connection strings will not work")
	}
	return nil
}

func checkServer(ctx *cli.Context) error {
	info, err := serverlock.Running(ctx.ConfigDir)
	if err != nil {
		if errors.Is(err, serverlock.ErrNotRunning) {
			return skipped("no server running")
		}
		return err
	}
	ctx.Printf("   weekplan serve is running on %s (pid %d)\n", info.Addr, info.PID)
	return nil
}
