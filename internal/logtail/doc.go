// Package logtail reads and filters the tail of meddesk's own log file.
//
// # Overview
//
// meddesk writes slog output to <state_dir>/meddesk.log while the TUI owns
// the terminal. The log command uses this package to show the end of that
// file, optionally narrowed by level and search words.
//
// # Reading Log Files
//
// Read uses a ring buffer to extract the last maxLines from a file in one
// pass with O(maxLines) memory, returning lines in chronological order. A
// non-positive maxLines returns the whole file.
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//	if err != nil {
//		return err
//	}
//	lines = logtail.Filter(lines, slog.LevelWarn, "doctor_id")
//
// # Levels
//
// LineLevel understands both slog encodings: level=WARN in text output and
// "level":"WARN" in JSON. Lines with no level (panics, stray prints) are
// treated as info.
//
// # Error Handling
//
// A missing file is not an error and yields no lines. Open and scan
// failures are wrapped as "open log" and "read log".
package logtail
