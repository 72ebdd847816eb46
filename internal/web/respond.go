package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/storage"
	"github.com/julianstephens/weekplan/internal/validation"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Data    any             `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any, rec *notify.Recorder) {
	writeJSON(w, status, envelope{Data: data, Notices: rec.Notices()})
}

func writeError(w http.ResponseWriter, err error, rec *notify.Recorder) {
	env := envelope{Error: err.Error()}
	if rec != nil {
		env.Notices = rec.Notices()
	}
	writeJSON(w, statusFor(err), env)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrLongPassword),
		errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, auth.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
