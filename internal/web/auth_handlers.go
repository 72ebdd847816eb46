package web

import (
	"net/http"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/notify"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm_password,omitempty"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	u, err := s.auth.WithSink(rec).SignUp(r.Context(), in.Email, in.Password, in.Confirm)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusCreated, u, rec)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	svc := s.auth.WithSink(rec)
	sess, err := svc.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	s.setSessionCookie(w, sess)
	u, err := svc.CurrentUser(auth.WithToken(r.Context(), sess.Token))
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, u, rec)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	if err := s.auth.WithSink(rec).SignOut(r.Context()); err != nil {
		writeError(w, err, rec)
		return
	}
	s.clearSessionCookie(w)
	writeData(w, http.StatusOK, nil, rec)
}

func (s *Server) handleOAuthBegin(w http.ResponseWriter, r *http.Request) {
	url, err := s.auth.BeginOAuth(r.PathValue("provider"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rec := &notify.Recorder{}
	if msg := q.Get("error"); msg != "" {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "provider returned error: " + msg})
		return
	}
	res, err := s.auth.WithSink(rec).CompleteOAuth(r.Context(), r.PathValue("provider"), q.Get("state"), q.Get("code"))
	if err != nil {
		writeError(w, err, rec)
		return
	}
	s.setSessionCookie(w, res.Session)
	http.Redirect(w, r, res.Redirect, http.StatusFound)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: u})
}
