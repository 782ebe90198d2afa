package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/domain/audit"
	"github.com/seedandbeyond/snb-harvest/internal/infra/store"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
	"github.com/seedandbeyond/snb-harvest/internal/session"
)

func setupApp(t *testing.T, handler http.Handler) (*App, *session.Repo) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var cfg config.Config
	cfg.App.Name = "SH"
	cfg.API.BaseURL = srv.URL
	cfg.API.Version = "/b1s/v1"
	cfg.API.CompanyDB = "__QAS"
	cfg.API.Timeout = 5 * time.Second
	cfg.API.BatchTimeout = 5 * time.Second
	cfg.API.ScannerDelay = 10 * time.Millisecond
	cfg.Endpoints.Login = "/Login"
	cfg.Endpoints.CurrentUser = "/UsersService_GetCurrentUser"
	cfg.Endpoints.Log = "/NBNLG"

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sl := servicelayer.New(cfg, log)
	sessions := session.NewRepo(db)
	rec := audit.NewRecorder(sl, cfg, audit.NewRepo(db), log)
	return New(cfg, sl, sessions, rec, nil, log), sessions
}

func TestRestoreSessionNoSession(t *testing.T) {
	a, _ := setupApp(t, http.NotFoundHandler())

	_, ok, err := a.RestoreSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("empty store should not restore a session")
	}
}

func TestRestoreSessionValid(t *testing.T) {
	a, sessions := setupApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Basic tok-1" {
			http.Error(w, "no", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"UserName":"Floor Manager"}`))
	}))
	ctx := context.Background()
	if err := sessions.Set(ctx, "tok-1", "manager"); err != nil {
		t.Fatal(err)
	}

	name, ok, err := a.RestoreSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || name != "Floor Manager" {
		t.Errorf("restore = %q, %v", name, ok)
	}
}

func TestRestoreSessionInvalidClearsStore(t *testing.T) {
	a, sessions := setupApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	ctx := context.Background()
	if err := sessions.Set(ctx, "stale", "manager"); err != nil {
		t.Fatal(err)
	}

	_, ok, err := a.RestoreSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expired token should not restore")
	}

	s, err := sessions.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Errorf("stale session should be wiped, got %+v", s)
	}
}

func TestLoginPersistsSession(t *testing.T) {
	a, sessions := setupApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/b1s/v1/Login":
			_, _ = w.Write([]byte(`{}`))
		case "/b1s/v1/UsersService_GetCurrentUser":
			_, _ = w.Write([]byte(`{"UserName":"Floor Manager"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := context.Background()

	name, err := a.Login(ctx, "manager", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Floor Manager" {
		t.Errorf("name = %q", name)
	}

	s, err := sessions.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("no persisted session")
	}
	if s.Username != "Floor Manager" {
		t.Errorf("persisted session = %+v", s)
	}
	if s.Token != servicelayer.BasicToken("__QAS", "manager", "s3cret") {
		t.Error("persisted token mismatch")
	}
}

func TestLoginUnparseableErrorBody(t *testing.T) {
	a, _ := setupApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>gateway error</html>", http.StatusUnauthorized)
	}))

	_, err := a.Login(context.Background(), "manager", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Invalid credentials" {
		t.Errorf("error = %q, want the login fallback", err.Error())
	}
}

func TestLoginFriendlyError(t *testing.T) {
	a, _ := setupApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":{"value":"Incorrect password supplied"}}}`, http.StatusUnauthorized)
	}))

	_, err := a.Login(context.Background(), "manager", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	want := "The password you entered is incorrect. Please check your password and try again."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
