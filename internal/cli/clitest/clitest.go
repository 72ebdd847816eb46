// Package clitest builds command contexts backed by a temporary SQLite
// database and the mock OS keyring.
package clitest

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/config"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/storage/sqlite"
	"github.com/julianstephens/weekplan/internal/storage/storagetest"
)

// Output captures what a command printed.
type Output struct {
	Out bytes.Buffer
	Err bytes.Buffer
}

// New returns an initialized context. Settings are pinned to UTC and nl.
func New(t *testing.T) (*cli.Context, *Output) {
	t.Helper()
	gokeyring.MockInit()

	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	if err := store.SaveSettings(models.Settings{Timezone: "UTC", Locale: "nl"}); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"

	out := &Output{}
	ctx := &cli.Context{
		Store:     store,
		Config:    cfg,
		ConfigDir: dir,
		Sessions:  auth.NewKeyringSessions(),
		Out:       &out.Out,
		Err:       &out.Err,
	}
	return ctx, out
}

// SignIn creates a user and stores a live session for it in the keyring.
func SignIn(t *testing.T, ctx *cli.Context) models.User {
	t.Helper()
	u := storagetest.NewUser(t, ctx.Store)
	sess := auth.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := ctx.Sessions.Put(sess); err != nil {
		t.Fatalf("failed to store session: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Sessions.Delete("") })
	return u
}
