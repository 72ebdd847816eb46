// Package auth implements password and federated sign-in on top of the
// storage user tables.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/storage"
)

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrNoSession          = errors.New("no user logged in")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
	ErrLongPassword       = fmt.Errorf("password must be at most %d bytes", constants.MaxPasswordLength)
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidState       = errors.New("invalid or expired oauth state")
	ErrUnknownProvider    = errors.New("unknown or unconfigured oauth provider")
)

// UserStore is the slice of storage.Provider auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	LinkIdentity(ctx context.Context, id models.Identity) error
	GetIdentity(ctx context.Context, provider, subject string) (models.Identity, error)
}

type Options struct {
	// BaseURL is where the HTTP server is reachable; oauth redirects go to
	// BaseURL + /auth/callback/{provider}.
	BaseURL    string
	SessionTTL time.Duration
	Providers  []Provider
	Sink       notify.Sink
	Localizer  *notify.Localizer
	HTTPClient *http.Client
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	states     *StateStore
	providers  map[string]Provider
	baseURL    string
	ttl        time.Duration
	sink       notify.Sink
	loc        *notify.Localizer
	httpClient *http.Client
	cost       int
	now        func() time.Time
}

func NewService(users UserStore, sessions SessionStore, opts Options) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		states:     NewStateStore(constants.OAuthStateTTL),
		providers:  make(map[string]Provider),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		ttl:        opts.SessionTTL,
		sink:       opts.Sink,
		loc:        opts.Localizer,
		httpClient: opts.HTTPClient,
		cost:       opts.BcryptCost,
		now:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = constants.DefaultSessionTTL
	}
	if s.sink == nil {
		s.sink = notify.Discard
	}
	if s.loc == nil {
		s.loc = notify.NewLocalizer(constants.DefaultLocale)
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	for _, p := range opts.Providers {
		if p.ClientID != "" {
			s.providers[p.Name] = p
		}
	}
	return s
}

// WithSink returns a copy of s reporting to sink. Sessions and oauth state
// stay shared with s.
func (s *Service) WithSink(sink notify.Sink) *Service {
	c := *s
	c.sink = sink
	return &c
}

// States exposes the pending oauth state store for housekeeping.
func (s *Service) States() *StateStore {
	return s.states
}

// SignUp registers an email/password account. The password confirmation is
// checked before anything touches the store.
func (s *Service) SignUp(ctx context.Context, email, password, confirm string) (models.User, error) {
	if password != confirm {
		s.sink.Notify(s.loc.Failure(notify.ErrorTitle, notify.PasswordMismatch))
		return models.User{}, ErrPasswordMismatch
	}

	email, err := normalizeEmail(email)
	switch {
	case err != nil:
	case len(password) < constants.MinPasswordLength:
		err = ErrWeakPassword
	case len(password) > constants.MaxPasswordLength:
		err = ErrLongPassword
	}
	if err != nil {
		s.sink.Notify(s.loc.ErrorNotice(err.Error()))
		return models.User{}, err
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		s.sink.Notify(s.loc.ErrorNotice(ErrEmailTaken.Error()))
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, s.backendError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, s.backendError(fmt.Errorf("failed to hash password: %w", err))
	}

	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC().Format(constants.TimestampFormat),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return models.User{}, s.backendError(err)
	}

	logger.Info("User registered", "user_id", u.ID)
	s.sink.Notify(s.loc.Notice(notify.SuccessTitle, notify.CheckEmail, notify.Default))
	return u, nil
}

// SignIn checks the password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.rejectCredentials()
		}
		return Session{}, s.backendError(err)
	}
	if u.PasswordHash == "" {
		// Federated-only account.
		return s.rejectCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return s.rejectCredentials()
	}
	return s.openSession(u)
}

func (s *Service) rejectCredentials() (Session, error) {
	s.sink.Notify(s.loc.ErrorNotice(ErrInvalidCredentials.Error()))
	return Session{}, ErrInvalidCredentials
}

// CurrentUser resolves the session carried by ctx.
func (s *Service) CurrentUser(ctx context.Context) (models.User, error) {
	sess, err := s.sessions.Get(TokenFrom(ctx))
	if err != nil {
		return models.User{}, err
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = s.sessions.Delete(sess.Token)
			return models.User{}, ErrNoSession
		}
		return models.User{}, err
	}
	return u, nil
}

// SignOut ends the session carried by ctx. Signing out without a session is
// not an error.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.sessions.Delete(TokenFrom(ctx)); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.sink.Notify(s.loc.Notice(notify.SuccessTitle, notify.SignedOut, notify.Default))
	return nil
}

func (s *Service) openSession(u models.User) (Session, error) {
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Put(sess); err != nil {
		return Session{}, s.backendError(fmt.Errorf("failed to store session: %w", err))
	}
	logger.Info("Session opened", "user_id", u.ID)
	s.sink.Notify(s.loc.Notice(notify.SuccessTitle, notify.SignedIn, notify.Default, u.Email))
	return sess, nil
}

func (s *Service) backendError(err error) error {
	logger.Error("Auth backend call failed", "error", err)
	s.sink.Notify(s.loc.ErrorNotice(err.Error()))
	return err
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// oauthContext routes oauth2 traffic through the configured http client.
func (s *Service) oauthContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}
