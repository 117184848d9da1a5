package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNew_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("login",
		"token", "T1",
		"access_token", "T2",
		"Password", "pw",
		"header", "Bearer T3",
		"user", "alice",
		"has_token", true,
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for _, key := range []string{"token", "access_token", "Password"} {
		if entry[key] != redacted {
			t.Fatalf("%s = %v, want redacted", key, entry[key])
		}
	}
	if entry["header"] != "Bearer "+redacted {
		t.Fatalf("header = %v, want redacted bearer", entry["header"])
	}
	if entry["user"] != "alice" || entry["has_token"] != true {
		t.Fatalf("non-sensitive fields changed: %v", entry)
	}
	for _, secret := range []string{"T1", "T2", "pw", "T3"} {
		if strings.Contains(buf.String(), `"`+secret+`"`) {
			t.Fatalf("log output leaked %q: %s", secret, buf.String())
		}
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	if _, err := Setup(Options{Output: &buf}); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	slog.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("default logger did not write to output: %q", buf.String())
	}
}
