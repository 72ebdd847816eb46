package auth

import (
	"errors"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"
)

func TestMemorySessions(t *testing.T) {
	m := NewMemorySessions()
	now := time.Now()

	if err := m.Put(Session{}); err == nil {
		t.Error("Put() with empty token should fail")
	}
	if err := m.Put(Session{Token: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := m.Put(Session{Token: "stale", UserID: "u2", ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if s, err := m.Get("live"); err != nil || s.UserID != "u1" {
		t.Errorf("Get(live) = %+v, %v", s, err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get(missing) error = %v", err)
	}

	if n := m.Purge(now); n != 1 {
		t.Errorf("Purge() removed %d, want 1", n)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	_ = m.Delete("live")
	if _, err := m.Get("live"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() after Delete error = %v", err)
	}
}

func TestKeyringSessions(t *testing.T) {
	gokeyring.MockInit()
	k := NewKeyringSessions()

	if _, err := k.Get(""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get() on empty keyring error = %v", err)
	}

	s := Session{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second)}
	if err := k.Put(s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := k.Get("")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Token != s.Token || got.UserID != s.UserID || !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Errorf("Get() = %+v, want %+v", got, s)
	}
	if _, err := k.Get("other"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get(other token) error = %v", err)
	}

	// Deleting someone else's token leaves ours alone.
	if err := k.Delete("other"); err != nil {
		t.Fatalf("Delete(other) error = %v", err)
	}
	if _, err := k.Get("tok"); err != nil {
		t.Errorf("Get() after foreign Delete error = %v", err)
	}

	if err := k.Delete(""); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := k.Get(""); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() after Delete error = %v", err)
	}

	k.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_ = k.Put(s)
	if _, err := k.Get(""); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() expired error = %v", err)
	}
}
