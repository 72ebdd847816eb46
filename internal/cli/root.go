package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/config"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/storage"
	"github.com/julianstephens/weekplan/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Config *config.Config
	// ConfigDir holds the log directory and the server lockfile.
	ConfigDir string
	// Sessions defaults to the OS keyring.
	Sessions auth.SessionStore
	// Base is the parent context of every backend call. main cancels it on
	// SIGINT.
	Base context.Context

	Out io.Writer
	Err io.Writer
}

func (c *Context) Background() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) stderr() io.Writer {
	if c.Err == nil {
		return os.Stderr
	}
	return c.Err
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Stdout(), args...)
}

func (c *Context) config() *config.Config {
	if c.Config == nil {
		c.Config = config.DefaultConfig()
	}
	return c.Config
}

// Settings returns the stored display settings. The config file fills in
// when the store has none or cannot be read.
func (c *Context) Settings() models.Settings {
	cfg := c.config()
	fallback := models.Settings{Timezone: cfg.Timezone, Locale: cfg.Locale}
	if c.Store == nil {
		return fallback
	}
	s, err := c.Store.GetSettings()
	if err != nil {
		return fallback
	}
	if s.Timezone == "" {
		s.Timezone = fallback.Timezone
	}
	if s.Locale == "" {
		s.Locale = fallback.Locale
	}
	return s
}

// Location is the display timezone used for week windows.
func (c *Context) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Settings().Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Context) Localizer() *notify.Localizer {
	return notify.NewLocalizer(c.Settings().Locale)
}

func (c *Context) sessions() auth.SessionStore {
	if c.Sessions == nil {
		c.Sessions = auth.NewKeyringSessions()
	}
	return c.Sessions
}

// Auth builds the auth service on the keyring session store. baseURL
// overrides the configured one; the oauth command points it at its local
// callback listener.
func (c *Context) Auth(sink notify.Sink, baseURL string) *auth.Service {
	cfg := c.config()
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	return auth.NewService(c.Store, c.sessions(), auth.Options{
		BaseURL:    baseURL,
		SessionTTL: cfg.TTL(),
		Providers:  cfg.Providers(),
		Sink:       sink,
		Localizer:  c.Localizer(),
	})
}

// Planner builds a planner reporting notices to rec.
func (c *Context) Planner(rec *notify.Recorder) *planner.Service {
	return planner.NewService(c.Store, c.Auth(rec, ""), rec, c.Localizer())
}

// RequireUser returns the signed-in user. Listings call it first because
// the planner treats a missing session as an empty result.
func (c *Context) RequireUser() (models.User, error) {
	u, err := c.Auth(notify.Discard, "").CurrentUser(c.Background())
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return models.User{}, fmt.Errorf("not signed in: %w", err)
		}
		return models.User{}, err
	}
	return u, nil
}

// PrintNotices writes the recorded notices; failures go to stderr.
func (c *Context) PrintNotices(rec *notify.Recorder) {
	for _, n := range rec.Notices() {
		line := n.Title
		if n.Description != "" {
			line += ": " + n.Description
		}
		if n.IsError() {
			fmt.Fprintf(c.stderr(), "❌ %s\n", line)
			continue
		}
		fmt.Fprintf(c.Stdout(), "✓ %s\n", line)
	}
	rec.Reset()
}

// ResolveTask finds a task by id or by a unique id prefix.
func ResolveTask(tasks []models.Task, ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("task id is required")
	}
	var matches []models.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("task %s: %w", ref, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("task id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// ResolveProject finds a project by id, id prefix or case-insensitive name.
func ResolveProject(projects []models.Project, ref string) (models.Project, error) {
	ref = strings.TrimSpace(ref)
	var matches []models.Project
	for _, p := range projects {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return models.Project{}, fmt.Errorf("project %q is ambiguous (%d matches)", ref, len(matches))
	}
	return models.Project{}, fmt.Errorf("project %s: %w", ref, storage.ErrNotFound)
}

// ShortID is the id prefix shown in listings.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ReferenceDate parses an optional YYYY-MM-DD as midnight in loc. Empty
// means now.
func ReferenceDate(date string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return time.Now().In(loc), nil
	}
	t, err := utils.ParseDateInLocation(strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return t, nil
}
