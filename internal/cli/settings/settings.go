package settings

import (
	"fmt"
	"strings"

	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone *string `help:"IANA timezone for week windows, or Local."`
	Locale   *string `help:"Notice language: nl or en."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Timezone: %s\n", settings.Timezone)
		ctx.Printf("  Locale:   %s\n", settings.Locale)
		return nil
	}

	updated := false
	if c.Timezone != nil {
		tz := strings.TrimSpace(*c.Timezone)
		if !utils.ValidateTimezone(tz) {
			return fmt.Errorf("invalid timezone %q", tz)
		}
		settings.Timezone = tz
		updated = true
	}
	if c.Locale != nil {
		locale := strings.ToLower(strings.TrimSpace(*c.Locale))
		if !notify.SupportedLocale(locale) {
			return fmt.Errorf("unsupported locale %q (expected nl or en)", locale)
		}
		settings.Locale = locale
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
