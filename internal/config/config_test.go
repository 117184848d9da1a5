package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.TokenBackend != BackendCookie {
		t.Fatalf("TokenBackend = %q, want %q", cfg.TokenBackend, BackendCookie)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if cfg.TokenTTL != 0 || cfg.JWTExpiry {
		t.Fatalf("token expiry enabled by default: ttl=%v jwt=%v", cfg.TokenTTL, cfg.JWTExpiry)
	}

	wantStateDir := filepath.Join(home, ".local/share/meddesk")
	if cfg.StateDir != wantStateDir {
		t.Fatalf("StateDir = %q, want %q", cfg.StateDir, wantStateDir)
	}
	if cfg.CookiePath() != filepath.Join(wantStateDir, "cookies.json") {
		t.Fatalf("CookiePath = %q", cfg.CookiePath())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  http://10.0.0.5:8000  "
login_path = "/auth/login"
request_timeout = "3s"
state_dir = "  ~/.meddesk  "
token_backend = "Redis"
token_ttl = "168h"
jwt_expiry = true
redis_addr = "cache:6379"
redis_db = 2
log_level = "debug"
log_format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:8000" {
		t.Fatalf("APIURL = %q, want trimmed url", cfg.APIURL)
	}
	if cfg.LoginPath != "/auth/login" || cfg.InfoPath != defaultInfoPath {
		t.Fatalf("paths = %q/%q", cfg.LoginPath, cfg.InfoPath)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if !strings.HasPrefix(cfg.StateDir, home) {
		t.Fatalf("StateDir = %q, want it under HOME %q", cfg.StateDir, home)
	}
	if cfg.TokenBackend != BackendRedis || cfg.RedisAddr != "cache:6379" || cfg.RedisDB != 2 {
		t.Fatalf("redis settings = %q %q %d", cfg.TokenBackend, cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.TokenTTL != 168*time.Hour || !cfg.JWTExpiry {
		t.Fatalf("expiry settings = %v %v", cfg.TokenTTL, cfg.JWTExpiry)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("log settings = %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.LogPath() != filepath.Join(cfg.StateDir, "meddesk.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath())
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
api_url = "   "
state_dir = ""
request_timeout = ""
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	wantStateDir, err := ExpandPath(defaultStateDir)
	if err != nil {
		t.Fatalf("ExpandPath(defaultStateDir) returned error: %v", err)
	}
	if cfg.StateDir != wantStateDir {
		t.Fatalf("StateDir = %q, want %q", cfg.StateDir, wantStateDir)
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	cases := map[string]string{
		"toml":     `api_url = [`,
		"backend":  `token_backend = "floppy"`,
		"timeout":  `request_timeout = "soon"`,
		"ttl":      `token_ttl = "-1h"`,
		"redis db": `redis_db = -1`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if err == nil {
				t.Fatalf("Load returned nil error, want parse error")
			}
			if !strings.Contains(err.Error(), "parse config") {
				t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestDerivedPaths_DefaultWhenStateDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	for _, got := range []string{cfg.CookiePath(), cfg.LocalPath(), cfg.LogPath()} {
		if !strings.HasPrefix(got, home) {
			t.Fatalf("path = %q, want it under HOME %q", got, home)
		}
	}
	if !strings.HasSuffix(cfg.LocalPath(), filepath.FromSlash("/local.toml")) {
		t.Fatalf("LocalPath = %q, want it to end with /local.toml", cfg.LocalPath())
	}
}
