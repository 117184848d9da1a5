package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestLineLevel(t *testing.T) {
	tests := []struct {
		line  string
		level slog.Level
		ok    bool
	}{
		{`time=2025-01-01T10:00:00Z level=WARN msg="token read failed"`, slog.LevelWarn, true},
		{`{"time":"2025-01-01T10:00:00Z","level":"ERROR","msg":"x"}`, slog.LevelError, true},
		{`time=2025-01-01T10:00:00Z level=DEBUG msg=poll`, slog.LevelDebug, true},
		{`panic: something`, 0, false},
		{`msg="sublevel=WARN"`, 0, false},
	}
	for _, tt := range tests {
		level, ok := LineLevel(tt.line)
		if ok != tt.ok || level != tt.level {
			t.Errorf("LineLevel(%q) = %v, %v; want %v, %v", tt.line, level, ok, tt.level, tt.ok)
		}
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		`level=DEBUG msg="poll patients" doctor_id=7`,
		`level=INFO msg="logged in" user=alice`,
		`level=WARN msg="token read failed"`,
		`level=ERROR msg="persist doctor id failed" doctor_id=7`,
		`unstructured line`,
	}

	if got := Filter(lines, slog.LevelWarn, ""); !reflect.DeepEqual(got, lines[2:4]) {
		t.Fatalf("Filter(warn) = %v", got)
	}
	if got := Filter(lines, slog.LevelDebug, "DOCTOR_ID=7"); !reflect.DeepEqual(got, []string{lines[0], lines[3]}) {
		t.Fatalf("Filter(query) = %v", got)
	}
	if got := Filter(lines, slog.LevelInfo, ""); len(got) != 4 {
		t.Fatalf("Filter(info) kept %d lines, want 4", len(got))
	}
}
