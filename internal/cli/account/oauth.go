package account

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/notify"
)

// OAuthCmd signs in through Google or Slack. It listens for the provider's
// redirect on a loopback address, which must be registered with the provider
// as http://<listen>/auth/callback/<provider>.
type OAuthCmd struct {
	Provider string        `arg:"" enum:"google,slack" help:"Provider: google or slack."`
	Listen   string        `help:"Loopback address for the redirect." default:"127.0.0.1:8765"`
	Timeout  time.Duration `help:"How long to wait for the browser." default:"5m"`
}

type callbackResult struct {
	res auth.OAuthResult
	err error
}

func (c *OAuthCmd) Run(ctx *cli.Context) error {
	ln, err := net.Listen("tcp", c.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Listen, err)
	}

	rec := &notify.Recorder{}
	svc := ctx.Auth(rec, "http://"+ln.Addr().String())
	authURL, err := svc.BeginOAuth(c.Provider)
	if err != nil {
		ln.Close()
		ctx.PrintNotices(rec)
		return err
	}

	timeout := c.Timeout
	if timeout <= 0 || timeout > constants.OAuthStateTTL {
		timeout = constants.OAuthStateTTL
	}
	waitCtx, cancel := context.WithTimeout(ctx.Background(), timeout)
	defer cancel()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(svc, c.Provider, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("OAuth callback listener failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	ctx.Println("Open this URL in your browser to continue:")
	ctx.Println(authURL)

	select {
	case r := <-results:
		ctx.PrintNotices(rec)
		if r.err != nil {
			return r.err
		}
		if r.res.Created {
			ctx.Printf("Created account %s\n", r.res.User.Email)
		}
		return nil
	case <-waitCtx.Done():
		return fmt.Errorf("gave up waiting for the %s redirect: %w", c.Provider, waitCtx.Err())
	}
}

func callbackHandler(svc *auth.Service, provider string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/callback/{provider}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("provider") != provider {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		var res auth.OAuthResult
		var err error
		if denied := q.Get("error"); denied != "" {
			err = fmt.Errorf("provider returned error: %s", denied)
		} else {
			res, err = svc.CompleteOAuth(r.Context(), provider, q.Get("state"), q.Get("code"))
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Sign-in failed: %v\n", err)
		} else {
			fmt.Fprintf(w, "Signed in as %s. You can close this window.\n", res.User.Email)
		}

		select {
		case results <- callbackResult{res: res, err: err}:
		default:
		}
	})
	return mux
}
