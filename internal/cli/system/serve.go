package system

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/config"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/scheduler"
	"github.com/julianstephens/weekplan/internal/serverlock"
	"github.com/julianstephens/weekplan/internal/web"
)

type ServeCmd struct {
	Listen        string `help:"Listen address. Defaults to the config file's listen."`
	SecureCookies bool   `help:"Mark the session cookie Secure (serve behind HTTPS)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	addr := c.Listen
	if addr == "" {
		addr = cfg.Listen
	}
	if err := scheduler.ValidateSpec(cfg.Cleanup); err != nil {
		return err
	}

	lock, err := serverlock.Acquire(ctx.ConfigDir, addr)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release server lock", "error", err)
		}
	}()

	loc := ctx.Location()
	localizer := ctx.Localizer()
	sessions := auth.NewMemorySessions()
	authSvc := auth.NewService(ctx.Store, sessions, auth.Options{
		BaseURL:    cfg.BaseURL,
		SessionTTL: cfg.TTL(),
		Providers:  cfg.Providers(),
		Sink:       notify.Discard,
		Localizer:  localizer,
	})
	plannerSvc := planner.NewService(ctx.Store, authSvc, notify.Discard, localizer)

	sched := scheduler.New(loc)
	id, err := sched.AddCleanup(cfg.Cleanup, map[string]scheduler.Purger{
		"sessions":     sessions,
		"oauth_states": authSvc.States(),
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	logger.Info("Cleanup scheduled", "spec", cfg.Cleanup, "next", sched.Next(id))

	if providers := authSvc.Providers(); len(providers) > 0 {
		logger.Info("OAuth providers enabled", "providers", providers)
	}

	runCtx, stop := signal.NotifyContext(ctx.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx.Printf("weekplan serving on http://%s (Ctrl+C to stop)\n", addr)
	srv := web.New(authSvc, plannerSvc, web.Options{Location: loc, SecureCookies: c.SecureCookies})
	if err := srv.Serve(runCtx, addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
