package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/storage/sqlite"
)

type testServer struct {
	srv     *Server
	handler http.Handler
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "web.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	loc := notify.NewLocalizer("nl")
	authSvc := auth.NewService(store, auth.NewMemorySessions(), auth.Options{
		BaseURL:    "http://planner.test",
		Localizer:  loc,
		BcryptCost: bcrypt.MinCost,
		Providers:  []auth.Provider{auth.GoogleProvider("client-id", "client-secret")},
	})
	planSvc := planner.NewService(store, authSvc, nil, loc)
	srv := New(authSvc, planSvc, Options{Location: time.UTC})
	srv.now = func() time.Time { return time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC) }
	return &testServer{srv: srv, handler: srv.Handler()}
}

func (ts *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// signIn registers and logs in a user, returning the session token.
func (ts *testServer) signIn(t *testing.T, email string) string {
	t.Helper()
	body := `{"email":"` + email + `","password":"geheim123","confirm_password":"geheim123"}`
	if res := ts.do(t, http.MethodPost, "/auth/signup", body, ""); res.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", res.Code, res.Body)
	}
	res := ts.do(t, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"geheim123"}`, "")
	if res.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", res.Code, res.Body)
	}
	for _, c := range res.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("login did not set a session cookie")
	return ""
}

type response[T any] struct {
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Notices []notify.Notice `json:"notices"`
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) response[T] {
	t.Helper()
	var out response[T]
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)
	res := ts.do(t, http.MethodGet, "/health", "", "")
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", res.Code, res.Body)
	}
}

func TestSignUpMismatch(t *testing.T) {
	ts := setupServer(t)
	res := ts.do(t, http.MethodPost, "/auth/signup", `{"email":"a@b.nl","password":"geheim123","confirm_password":"anders123"}`, "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
	out := decode[any](t, res)
	if len(out.Notices) != 1 || out.Notices[0].Description != "Wachtwoorden komen niet overeen" {
		t.Errorf("notices = %+v", out.Notices)
	}
}

func TestTasksRequireSession(t *testing.T) {
	ts := setupServer(t)

	res := ts.do(t, http.MethodGet, "/api/tasks", "", "")
	if res.Code != http.StatusOK {
		t.Fatalf("anonymous list status = %d", res.Code)
	}
	if out := decode[[]models.Task](t, res); len(out.Data) != 0 {
		t.Errorf("anonymous list = %+v", out.Data)
	}

	res = ts.do(t, http.MethodPost, "/api/tasks", `{"title":"x"}`, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d", res.Code)
	}
	if out := decode[any](t, res); out.Error != "no user logged in" {
		t.Errorf("error = %q", out.Error)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := setupServer(t)
	token := ts.signIn(t, "anna@example.com")

	res := ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Plan demo","planned_date":"2024-01-17","priority":"high"}`, token)
	if res.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", res.Code, res.Body)
	}
	task := decode[models.Task](t, res).Data

	res = ts.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", "", token)
	toggled := decode[toggleResponse](t, res)
	if res.Code != http.StatusOK || !toggled.Data.Completed || toggled.Data.Task.CompletedAt == nil {
		t.Fatalf("toggle = %d %+v", res.Code, toggled)
	}

	res = ts.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/status", `{"status":"pending"}`, token)
	if got := decode[models.Task](t, res).Data; res.Code != http.StatusOK || got.CompletedAt != nil {
		t.Fatalf("status = %d %+v", res.Code, got)
	}

	res = ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID, `{"title":"Plan release","planned_date":null}`, token)
	edited := decode[models.Task](t, res)
	if res.Code != http.StatusOK || edited.Data.Title != "Plan release" || edited.Data.PlannedDate != nil {
		t.Fatalf("edit = %d %+v", res.Code, edited)
	}
	if len(edited.Notices) != 1 || edited.Notices[0].Title != "Taak bijgewerkt" {
		t.Errorf("edit notices = %+v", edited.Notices)
	}

	res = ts.do(t, http.MethodPost, "/api/tasks/missing/toggle", "", token)
	if res.Code != http.StatusNotFound {
		t.Errorf("toggle missing status = %d", res.Code)
	}

	other := ts.signIn(t, "bob@example.com")
	res = ts.do(t, http.MethodGet, "/api/tasks", "", other)
	if out := decode[[]models.Task](t, res); len(out.Data) != 0 {
		t.Errorf("other user sees %d tasks", len(out.Data))
	}
}

func TestEditTaskBadRequests(t *testing.T) {
	ts := setupServer(t)
	token := ts.signIn(t, "anna@example.com")

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"unknown field", `{"colour":"red"}`},
		{"not a string", `{"title":5}`},
		{"bad json", `{"title":`},
		{"null status", `{"status":null}`},
		{"null priority", `{"priority":null,"title":"x"}`},
		{"null title", `{"title":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ts.do(t, http.MethodPatch, "/api/tasks/any", tt.body, token)
			if res.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", res.Code)
			}
		})
	}
}

func TestEditTaskRejectsCompletionMismatch(t *testing.T) {
	ts := setupServer(t)
	token := ts.signIn(t, "anna@example.com")

	res := ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Ship"}`, token)
	task := decode[models.Task](t, res).Data
	ts.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", "", token)

	for _, body := range []string{
		`{"completed_at":null}`,
		`{"status":"pending","completed_at":"2024-01-17T10:00:00Z"}`,
	} {
		t.Run(body, func(t *testing.T) {
			res := ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID, body, token)
			if res.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", res.Code, res.Body)
			}
		})
	}

	res = ts.do(t, http.MethodGet, "/api/tasks", "", token)
	tasks := decode[[]models.Task](t, res).Data
	if len(tasks) != 1 || !tasks[0].IsCompleted() || tasks[0].CompletedAt == nil {
		t.Errorf("task after rejected edits = %+v", tasks)
	}
}

func TestWeek(t *testing.T) {
	ts := setupServer(t)
	token := ts.signIn(t, "anna@example.com")

	for _, title := range []string{"a", "b", "c"} {
		body := `{"title":"` + title + `","planned_date":"2024-01-16"}`
		if res := ts.do(t, http.MethodPost, "/api/tasks", body, token); res.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", title, res.Code)
		}
	}
	if res := ts.do(t, http.MethodPost, "/api/events", `{"title":"Retro","start_date":"2024-01-19","start_time":"15:00","end_time":"16:00"}`, token); res.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", res.Code, res.Body)
	}

	res := ts.do(t, http.MethodGet, "/api/week", "", token)
	if res.Code != http.StatusOK {
		t.Fatalf("week status = %d: %s", res.Code, res.Body)
	}
	out := decode[weekResponse](t, res).Data
	if out.Start != "2024-01-15" || out.End != "2024-01-21" || len(out.Days) != 7 {
		t.Fatalf("week = %+v", out)
	}
	tue := out.Days[1]
	if len(tue.Tasks) != 3 || tue.MoreTasks != 1 || tue.MoreTasksLabel != "+1 meer taken" {
		t.Errorf("tuesday = %+v", tue)
	}
	if !out.Days[2].IsToday {
		t.Error("wednesday should be today")
	}
	if len(out.Days[4].Events) != 1 {
		t.Errorf("friday events = %d", len(out.Days[4].Events))
	}

	res = ts.do(t, http.MethodGet, "/api/week?date=2024-01-17&offset=1", "", token)
	if out := decode[weekResponse](t, res).Data; out.Start != "2024-01-22" {
		t.Errorf("next week start = %s", out.Start)
	}

	for _, q := range []string{"?date=17-01-2024", "?offset=x"} {
		if res := ts.do(t, http.MethodGet, "/api/week"+q, "", token); res.Code != http.StatusBadRequest {
			t.Errorf("week%s status = %d, want 400", q, res.Code)
		}
	}

	res = ts.do(t, http.MethodGet, "/api/week.ics", "", token)
	if res.Code != http.StatusOK || res.Header().Get("Content-Type") != "text/calendar; charset=utf-8" {
		t.Fatalf("ics = %d %s", res.Code, res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Body.String(), "SUMMARY:Retro") {
		t.Errorf("ics missing event:\n%s", res.Body)
	}
}

func TestLogout(t *testing.T) {
	ts := setupServer(t)
	token := ts.signIn(t, "anna@example.com")

	if res := ts.do(t, http.MethodGet, "/profile", "", token); res.Code != http.StatusOK {
		t.Fatalf("profile status = %d", res.Code)
	}
	res := ts.do(t, http.MethodPost, "/auth/logout", "", token)
	if res.Code != http.StatusOK {
		t.Fatalf("logout status = %d", res.Code)
	}
	if res := ts.do(t, http.MethodGet, "/profile", "", token); res.Code != http.StatusUnauthorized {
		t.Errorf("profile after logout = %d", res.Code)
	}
}

func TestOAuthBegin(t *testing.T) {
	ts := setupServer(t)

	res := ts.do(t, http.MethodGet, "/auth/oauth/google", "", "")
	if res.Code != http.StatusFound {
		t.Fatalf("status = %d", res.Code)
	}
	loc := res.Header().Get("Location")
	if !strings.Contains(loc, "accounts.google.com") || !strings.Contains(loc, "state=") {
		t.Errorf("redirect = %s", loc)
	}
	if !strings.Contains(loc, "planner.test%2Fauth%2Fcallback%2Fgoogle") {
		t.Errorf("redirect_uri not set: %s", loc)
	}

	if res := ts.do(t, http.MethodGet, "/auth/oauth/github", "", ""); res.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d", res.Code)
	}
	if res := ts.do(t, http.MethodGet, "/auth/callback/google?state=forged&code=x", "", ""); res.Code != http.StatusBadRequest {
		t.Errorf("forged state status = %d", res.Code)
	}
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	if got := sessionToken(req); got != "abc" {
		t.Errorf("bearer token = %q", got)
	}
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "cookie"})
	if got := sessionToken(req); got != "cookie" {
		t.Errorf("cookie token = %q", got)
	}
}
