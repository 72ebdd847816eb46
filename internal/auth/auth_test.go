package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/storage/sqlite"
)

// countingStore records whether auth reached the backend.
type countingStore struct {
	UserStore
	calls int
}

func (c *countingStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	c.calls++
	return c.UserStore.GetUserByEmail(ctx, email)
}

func (c *countingStore) CreateUser(ctx context.Context, u models.User) error {
	c.calls++
	return c.UserStore.CreateUser(ctx, u)
}

func setupService(t *testing.T, opts Options) (*Service, *countingStore, *notify.Recorder) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	rec := &notify.Recorder{}
	opts.Sink = rec
	opts.BcryptCost = bcrypt.MinCost
	users := &countingStore{UserStore: store}
	return NewService(users, NewMemorySessions(), opts), users, rec
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		confirm     string
		wantErr     error
		wantNotice  string
		wantBackend bool
	}{
		{
			name:        "success",
			email:       "anna@example.com",
			password:    "geheim123",
			confirm:     "geheim123",
			wantNotice:  "Controleer je e-mail voor de bevestigingslink",
			wantBackend: true,
		},
		{
			name:       "password mismatch",
			email:      "anna@example.com",
			password:   "geheim123",
			confirm:    "geheim124",
			wantErr:    ErrPasswordMismatch,
			wantNotice: "Wachtwoorden komen niet overeen",
		},
		{
			name:     "invalid email",
			email:    "not-an-email",
			password: "geheim123",
			confirm:  "geheim123",
			wantErr:  ErrInvalidEmail,
		},
		{
			name:     "short password",
			email:    "anna@example.com",
			password: "abc",
			confirm:  "abc",
			wantErr:  ErrWeakPassword,
		},
		{
			name:     "password over bcrypt limit",
			email:    "anna@example.com",
			password: strings.Repeat("a", constants.MaxPasswordLength+1),
			confirm:  strings.Repeat("a", constants.MaxPasswordLength+1),
			wantErr:  ErrLongPassword,
		},
		{
			name:        "password at bcrypt limit",
			email:       "anna@example.com",
			password:    strings.Repeat("a", constants.MaxPasswordLength),
			confirm:     strings.Repeat("a", constants.MaxPasswordLength),
			wantBackend: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, rec := setupService(t, Options{})

			u, err := svc.SignUp(context.Background(), tt.email, tt.password, tt.confirm)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SignUp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := users.calls > 0; got != tt.wantBackend {
				t.Errorf("backend called = %v, want %v", got, tt.wantBackend)
			}

			last, ok := rec.Last()
			if !ok {
				t.Fatal("SignUp() emitted no notice")
			}
			if tt.wantNotice != "" && last.Description != tt.wantNotice {
				t.Errorf("notice = %q, want %q", last.Description, tt.wantNotice)
			}
			if (tt.wantErr != nil) != last.IsError() {
				t.Errorf("notice variant = %q", last.Variant)
			}
			if tt.wantErr == nil {
				if u.ID == "" || u.PasswordHash == "" || u.PasswordHash == tt.password {
					t.Errorf("SignUp() user = %+v", u)
				}
			}
		})
	}
}

func TestSignUpCreatedAtFormat(t *testing.T) {
	svc, _, _ := setupService(t, Options{})
	svc.now = func() time.Time { return time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC) }

	u, err := svc.SignUp(context.Background(), "anna@example.com", "geheim123", "geheim123")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if want := "2024-01-17T10:00:00.000000Z"; u.CreatedAt != want {
		t.Errorf("CreatedAt = %q, want %q", u.CreatedAt, want)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := setupService(t, Options{})
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "bob@example.com", "secret1", "secret1"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(ctx, "Bob@Example.com", "secret1", "secret1"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second SignUp() error = %v, want %v", err, ErrEmailTaken)
	}
}

func TestSignInAndSession(t *testing.T) {
	svc, _, _ := setupService(t, Options{SessionTTL: time.Hour})
	ctx := context.Background()

	u, err := svc.SignUp(ctx, "carla@example.com", "secret1", "secret1")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if _, err := svc.CurrentUser(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("CurrentUser() before sign-in error = %v, want %v", err, ErrNoSession)
	}

	if _, err := svc.SignIn(ctx, "carla@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn() wrong password error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn() unknown user error = %v", err)
	}

	sess, err := svc.SignIn(ctx, "carla@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if sess.UserID != u.ID || sess.Token == "" {
		t.Errorf("SignIn() session = %+v", sess)
	}

	authed := WithToken(ctx, sess.Token)
	got, err := svc.CurrentUser(authed)
	if err != nil || got.ID != u.ID {
		t.Fatalf("CurrentUser() = %+v, %v", got, err)
	}

	if err := svc.SignOut(authed); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if _, err := svc.CurrentUser(authed); !errors.Is(err, ErrNoSession) {
		t.Errorf("CurrentUser() after sign-out error = %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	svc, _, _ := setupService(t, Options{SessionTTL: time.Minute})
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, "dirk@example.com", "secret1", "secret1"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	sess, err := svc.SignIn(ctx, "dirk@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	sessions := svc.sessions.(*MemorySessions)
	sessions.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.CurrentUser(WithToken(ctx, sess.Token)); !errors.Is(err, ErrNoSession) {
		t.Errorf("CurrentUser() with expired session error = %v", err)
	}
}

func TestTokenFrom(t *testing.T) {
	if TokenFrom(context.Background()) != "" {
		t.Error("TokenFrom() on bare context should be empty")
	}
	if got := TokenFrom(WithToken(context.Background(), "abc")); got != "abc" {
		t.Errorf("TokenFrom() = %q, want abc", got)
	}
}
