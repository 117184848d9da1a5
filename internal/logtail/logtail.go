package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file is empty.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// levelPattern matches slog's text (level=WARN) and JSON ("level":"WARN")
// encodings.
var levelPattern = regexp.MustCompile(`(?:^|\s)level=([A-Z]+)|"level":"([A-Z]+)"`)

// LineLevel extracts the slog level of a log line. Lines without one report
// false.
func LineLevel(line string) (slog.Level, bool) {
	m := levelPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, false
	}
	return level, true
}

// Filter keeps lines at or above min that also contain every word in
// query, case-insensitively. Lines without a level are kept only when min
// is at or below info.
func Filter(lines []string, min slog.Level, query string) []string {
	words := strings.Fields(strings.ToLower(query))
	var out []string
	for _, line := range lines {
		level, ok := LineLevel(line)
		if !ok {
			level = slog.LevelInfo
		}
		if level < min {
			continue
		}
		if !containsAll(strings.ToLower(line), words) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
