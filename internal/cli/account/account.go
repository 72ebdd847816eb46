// Package account holds the sign-up and sign-in commands. The session is
// kept in the OS keyring.
package account

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/cli"
	"github.com/julianstephens/weekplan/internal/notify"
)

// promptPassword asks for any password not given on the command line.
var promptPassword = func(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	return value, err
}

func passwordOrPrompt(value, title string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := promptPassword(title)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return v, nil
}

type RegisterCmd struct {
	Email    string `arg:"" help:"Email address."`
	Password string `help:"Password (prompted when omitted)." env:"WEEKPLAN_PASSWORD"`
	Confirm  string `help:"Password confirmation (prompted when omitted)."`
}

func (c *RegisterCmd) Run(ctx *cli.Context) error {
	password, err := passwordOrPrompt(c.Password, "Password")
	if err != nil {
		return err
	}
	confirm := c.Confirm
	if confirm == "" && c.Password == "" {
		if confirm, err = passwordOrPrompt("", "Confirm password"); err != nil {
			return err
		}
	} else if confirm == "" {
		confirm = password
	}

	rec := &notify.Recorder{}
	u, err := ctx.Auth(rec, "").SignUp(ctx.Background(), c.Email, password, confirm)
	ctx.PrintNotices(rec)
	if err != nil {
		return err
	}
	ctx.Printf("Registered %s (id %s). Sign in with 'weekplan login %s'.\n", u.Email, cli.ShortID(u.ID), u.Email)
	return nil
}

type LoginCmd struct {
	Email    string `arg:"" help:"Email address."`
	Password string `help:"Password (prompted when omitted)." env:"WEEKPLAN_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	password, err := passwordOrPrompt(c.Password, "Password")
	if err != nil {
		return err
	}
	rec := &notify.Recorder{}
	sess, err := ctx.Auth(rec, "").SignIn(ctx.Background(), c.Email, password)
	ctx.PrintNotices(rec)
	if err != nil {
		return err
	}
	ctx.Printf("Session valid until %s\n", sess.ExpiresAt.In(ctx.Location()).Format("2006-01-02 15:04"))
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	rec := &notify.Recorder{}
	err := ctx.Auth(rec, "").SignOut(ctx.Background())
	ctx.PrintNotices(rec)
	return err
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	u, err := ctx.Auth(notify.Discard, "").CurrentUser(ctx.Background())
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			ctx.Println("Not signed in.")
		}
		return err
	}
	ctx.Printf("%s\n", u.Email)
	ctx.Printf("  id:      %s\n", u.ID)
	ctx.Printf("  since:   %s\n", u.CreatedAt)
	return nil
}
