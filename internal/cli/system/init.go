package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/models"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting existing database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()

	if c.Force {
		if _, err := os.Stat(dbPath); err == nil {
			// Close first so the file is not held open on Windows.
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	if err := seedSettings(ctx); err != nil {
		return err
	}

	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, dbPath)
	return nil
}

// seedSettings copies the config file's timezone and locale into a database
// whose settings are still the built-in defaults. Settings changed with
// `weekplan settings` are left alone.
func seedSettings(ctx *cli.Context) error {
	if ctx.Config == nil {
		return nil
	}
	current, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	var defaults models.Settings
	models.ApplyDefaultSettings(&defaults)
	if current != defaults {
		return nil
	}

	seeded := models.Settings{Timezone: ctx.Config.Timezone, Locale: ctx.Config.Locale}
	models.ApplyDefaultSettings(&seeded)
	if seeded == current {
		return nil
	}
	if err := ctx.Store.SaveSettings(seeded); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	return nil
}
