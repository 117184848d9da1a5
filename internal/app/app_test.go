package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/meddesk/meddesk/internal/config"
	"github.com/meddesk/meddesk/internal/logging"
	"github.com/meddesk/meddesk/internal/session"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "T1", "name": "Alice", "id": 7})
		case "/users/7/patients":
			if r.Header.Get("Authorization") != "Bearer T1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"patients": []map[string]any{{"id": 1, "name": "Bob"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, apiURL, backend string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = apiURL
	cfg.StateDir = t.TempDir()
	cfg.TokenBackend = backend
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func TestNew_LoginPersistsAcrossRestartsForEachBackend(t *testing.T) {
	server := newAPI(t)
	mr := miniredis.RunT(t)

	for _, backend := range []string{config.BackendCookie, config.BackendFile, config.BackendRedis} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, server.URL, backend)
			cfg.RedisAddr = mr.Addr()
			mr.FlushAll()

			a, err := New(ctx, cfg, logging.Discard())
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if err := a.Session.Login(ctx, session.Credentials{Username: "alice", Password: "pw"}); err != nil {
				t.Fatalf("Login returned error: %v", err)
			}
			_ = a.Close()

			reopened, err := New(ctx, cfg, logging.Discard())
			if err != nil {
				t.Fatalf("New (reopen) returned error: %v", err)
			}
			t.Cleanup(func() { _ = reopened.Close() })

			snap := reopened.Session.State().Snapshot()
			if snap.Token != "T1" || snap.DoctorID != "7" {
				t.Fatalf("reopened session = %#v, want token T1 doctor 7", snap)
			}
			patients, err := reopened.Client.ListPatients(ctx, snap.DoctorID)
			if err != nil {
				t.Fatalf("ListPatients returned error: %v", err)
			}
			if len(patients) != 1 || patients[0].Name != "Bob" {
				t.Fatalf("patients = %#v, want Bob", patients)
			}
		})
	}
}

func TestNew_CookieBackendWritesStateDir(t *testing.T) {
	server := newAPI(t)
	ctx := context.Background()
	cfg := testConfig(t, server.URL, config.BackendCookie)

	a, err := New(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := a.Session.Login(ctx, session.Credentials{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if got := cfg.CookiePath(); filepath.Dir(got) != cfg.StateDir {
		t.Fatalf("CookiePath = %q, want under %q", got, cfg.StateDir)
	}
	if err := a.Session.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, ok := a.Tokens.Token(ctx); ok {
		t.Fatalf("token still present after logout")
	}
}

func TestNew_RedisUnreachableFails(t *testing.T) {
	cfg := testConfig(t, "http://localhost:5000", config.BackendRedis)
	cfg.RedisAddr = "127.0.0.1:1"
	cfg.RequestTimeout = 200 * time.Millisecond

	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("New returned nil error for unreachable redis")
	}
}

func TestNew_InvalidAPIURLFails(t *testing.T) {
	cfg := testConfig(t, "http://", config.BackendFile)
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("New returned nil error for url without host")
	}
}
