package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/storage"
)

const (
	ProviderGoogle = "google"
	ProviderSlack  = "slack"
)

// Provider describes an OpenID Connect capable oauth2 provider.
type Provider struct {
	Name         string
	Label        string
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	Scopes       []string
}

func GoogleProvider(clientID, clientSecret string) Provider {
	return Provider{
		Name:         ProviderGoogle,
		Label:        "Google",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.Google,
		UserInfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
		Scopes:       []string{"openid", "email", "profile"},
	}
}

// SlackProvider uses Sign in with Slack, which is OpenID Connect rather than
// the classic workspace install flow.
func SlackProvider(clientID, clientSecret string) Provider {
	return Provider{
		Name:         ProviderSlack,
		Label:        "Slack",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://slack.com/openid/connect/authorize",
			TokenURL: "https://slack.com/api/openid.connect.token",
		},
		UserInfoURL: "https://slack.com/api/openid.connect.userInfo",
		Scopes:      []string{"openid", "email", "profile"},
	}
}

// Providers lists the configured provider names, sorted.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) oauthConfig(p Provider) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     p.Endpoint,
		RedirectURL:  s.baseURL + "/auth/callback/" + p.Name,
		Scopes:       p.Scopes,
	}
}

// BeginOAuth returns the provider's authorize URL carrying a fresh one-time
// state.
func (s *Service) BeginOAuth(provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		s.sink.Notify(s.loc.Failure(notify.ErrorTitle, notify.OAuthFailed, provider))
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	state := s.states.Issue(provider)
	return s.oauthConfig(p).AuthCodeURL(state), nil
}

// OAuthResult is what a completed federated sign-in yields.
type OAuthResult struct {
	User     models.User
	Session  Session
	Redirect string
	Created  bool
}

type userInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	// Slack wraps errors in {"ok": false, "error": "..."}.
	OK    *bool  `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// CompleteOAuth finishes the redirect flow: it checks state, exchanges the
// code, links or creates the user and opens a session.
func (s *Service) CompleteOAuth(ctx context.Context, provider, state, code string) (OAuthResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return OAuthResult{}, s.oauthFailure(provider, fmt.Errorf("%w: %s", ErrUnknownProvider, provider))
	}
	if err := s.states.Consume(state, provider); err != nil {
		return OAuthResult{}, s.oauthFailure(p.Label, err)
	}

	octx := s.oauthContext(ctx)
	cfg := s.oauthConfig(p)
	tok, err := cfg.Exchange(octx, code)
	if err != nil {
		return OAuthResult{}, s.oauthFailure(p.Label, fmt.Errorf("code exchange failed: %w", err))
	}

	info, err := fetchUserInfo(octx, cfg.Client(octx, tok), p.UserInfoURL)
	if err != nil {
		return OAuthResult{}, s.oauthFailure(p.Label, err)
	}

	u, created, err := s.resolveIdentity(ctx, provider, info)
	if err != nil {
		return OAuthResult{}, s.oauthFailure(p.Label, err)
	}

	sess, err := s.openSession(u)
	if err != nil {
		return OAuthResult{}, err
	}
	return OAuthResult{User: u, Session: sess, Redirect: constants.PostAuthRoute, Created: created}, nil
}

func (s *Service) oauthFailure(label string, err error) error {
	logger.Warn("OAuth sign-in failed", "provider", label, "error", err)
	s.sink.Notify(notify.Notice{
		Title:       s.loc.T(notify.OAuthFailed, label),
		Description: err.Error(),
		Variant:     notify.Destructive,
	})
	return err
}

func fetchUserInfo(ctx context.Context, client *http.Client, url string) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return userInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return userInfo{}, fmt.Errorf("failed to read userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return userInfo{}, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return userInfo{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.OK != nil && !*info.OK {
		return userInfo{}, fmt.Errorf("userinfo error: %s", info.Error)
	}
	if info.Subject == "" || info.Email == "" {
		return userInfo{}, errors.New("userinfo is missing subject or email")
	}
	return info, nil
}

// resolveIdentity finds the user behind a provider identity. An unknown
// identity is linked to the account with the same email, or to a new
// password-less account.
func (s *Service) resolveIdentity(ctx context.Context, provider string, info userInfo) (models.User, bool, error) {
	ident, err := s.users.GetIdentity(ctx, provider, info.Subject)
	if err == nil {
		u, err := s.users.GetUser(ctx, ident.UserID)
		return u, false, err
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, false, err
	}

	now := s.now().UTC().Format(constants.TimestampFormat)
	created := false
	u, err := s.users.GetUserByEmail(ctx, info.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		email, perr := normalizeEmail(info.Email)
		if perr != nil {
			return models.User{}, false, perr
		}
		u = models.User{ID: uuid.NewString(), Email: email, CreatedAt: now}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return models.User{}, false, err
		}
		created = true
	case err != nil:
		return models.User{}, false, err
	}

	err = s.users.LinkIdentity(ctx, models.Identity{
		Provider:  provider,
		Subject:   info.Subject,
		UserID:    u.ID,
		Email:     info.Email,
		CreatedAt: now,
	})
	if err != nil {
		return models.User{}, false, err
	}
	return u, created, nil
}

// StateStore tracks issued oauth states until they are used or expire.
type StateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]pendingState
	now    func() time.Time
}

type pendingState struct {
	provider string
	expires  time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{ttl: ttl, states: make(map[string]pendingState), now: time.Now}
}

func (st *StateStore) Issue(provider string) string {
	state := uuid.NewString()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.states[state] = pendingState{provider: provider, expires: st.now().Add(st.ttl)}
	return state
}

// Consume validates and forgets state. A state is good for one use, for the
// provider it was issued to.
func (st *StateStore) Consume(state, provider string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	p, ok := st.states[state]
	if !ok {
		return ErrInvalidState
	}
	delete(st.states, state)
	if p.provider != provider || !st.now().Before(p.expires) {
		return ErrInvalidState
	}
	return nil
}

// Purge drops expired states and returns how many were removed.
func (st *StateStore) Purge(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for k, p := range st.states {
		if !now.Before(p.expires) {
			delete(st.states, k)
			n++
		}
	}
	return n
}

func (st *StateStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.states)
}
