package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/weekplan/internal/keyring"
)

// Session binds an opaque token to a user until it expires.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions. Get returns ErrNoSession for unknown or
// expired tokens.
type SessionStore interface {
	Put(s Session) error
	Get(token string) (Session, error)
	Delete(token string) error
}

type tokenKey struct{}

// WithToken attaches a session token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the session token carried by ctx, or "".
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// MemorySessions keeps sessions in process memory, keyed by token.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]Session), now: time.Now}
}

func (m *MemorySessions) Put(s Session) error {
	if s.Token == "" {
		return errors.New("session token cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *MemorySessions) Get(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNoSession
	}
	if s.Expired(m.now()) {
		delete(m.sessions, token)
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *MemorySessions) Delete(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Purge drops expired sessions and returns how many were removed.
func (m *MemorySessions) Purge(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}

func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// KeyringSessions keeps the single signed-in session of the local OS user.
// An empty token passed to Get or Delete means "whatever session is stored".
type KeyringSessions struct {
	now func() time.Time
}

func NewKeyringSessions() *KeyringSessions {
	return &KeyringSessions{now: time.Now}
}

func (k *KeyringSessions) Put(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return keyring.SetSessionToken(string(data))
}

func (k *KeyringSessions) Get(token string) (Session, error) {
	raw, err := keyring.GetSessionToken()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("corrupt session in keyring: %w", err)
	}
	if token != "" && token != s.Token {
		return Session{}, ErrNoSession
	}
	if s.Expired(k.now()) {
		_ = keyring.DeleteSessionToken()
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (k *KeyringSessions) Delete(token string) error {
	if token != "" {
		if _, err := k.Get(token); err != nil {
			return nil
		}
	}
	if err := keyring.DeleteSessionToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
