// Package errors reports command failures on the terminal.
package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/storage"
	"github.com/julianstephens/weekplan/internal/validation"
)

// Exit codes.
const (
	ExitFailure      = 1
	ExitNoSession    = 2
	ExitInvalidInput = 3
)

var hints = []struct {
	err  error
	hint string
}{
	{auth.ErrNoSession, "Sign in with 'weekplan login <email>' or 'weekplan oauth <google|slack>'."},
	{storage.ErrNotFound, "Listings show id prefixes; 'weekplan task list --show-ids' prints full ids."},
	{auth.ErrUnknownProvider, "Set the provider's client id in the config file and its secret in the environment."},
}

// Format renders err with the "Error: " prefix and, for known failures, a
// hint on the next line.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if h := Hint(err); h != "" {
		msg += "\n" + h
	}
	return msg
}

// Hint returns the follow-up suggestion for err, or "".
func Hint(err error) string {
	for _, h := range hints {
		if errors.Is(err, h.err) {
			return h.hint
		}
	}
	return ""
}

func ExitCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrNoSession):
		return ExitNoSession
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrLongPassword),
		errors.Is(err, auth.ErrInvalidEmail):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}

// Fatal logs err, prints it to stderr and exits with its exit code. A nil
// error is ignored.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(os.Stderr, Format(err))
	os.Exit(ExitCode(err))
}
