package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/meddesk/meddesk/internal/app"
	"github.com/meddesk/meddesk/internal/logging"
)

// TUICommand starts the terminal UI. Logs go to the state directory since
// the screen belongs to the UI.
func TUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Start the terminal UI",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "poll", Usage: "Patient refresh interval (default 15s)"},
			&cli.StringFlag{Name: "prefs", Usage: "Preferences file path", EnvVars: []string{"MEDDESK_PREFS"}},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logPath := cfg.LogPath()
			if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
				return fmt.Errorf("create log dir: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()

			logger, err := logging.Setup(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: logFile,
			})
			if err != nil {
				return err
			}

			a, err := app.New(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			logger.Info("tui starting", "api_url", cfg.APIURL, "token_backend", cfg.TokenBackend)
			return a.RunTUI(c.Context, app.TUIOptions{
				PrefsPath: c.String("prefs"),
				PollEvery: c.Duration("poll"),
			})
		},
	}
}
