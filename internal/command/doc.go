// Package command defines the meddesk command line.
//
// It uses urfave/cli/v2. Every command loads the config file, applies the
// global flag overrides (--api-url, --state-dir, --token-backend,
// --log-level) and wires an app.App, so the CLI and the TUI share one
// session: a token stored by "meddesk login" is picked up by "meddesk tui"
// and the other way round.
//
// Results are written with internal/output in the format chosen by
// --output (table, json, yaml).
package command
