package system

import (
	"fmt"

	"github.com/julianstephens/weekplan/internal/cli"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	before, latest, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if before > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", before, latest)
	}
	if before == latest {
		ctx.Println("No migrations to apply. Database is up to date.")
		return nil
	}

	// Init applies whatever is pending and is safe on an existing database.
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	after, _, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	ctx.Printf("Successfully applied %d migration(s). Schema version: %d\n", after-before, after)
	return nil
}
