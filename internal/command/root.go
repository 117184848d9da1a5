package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/meddesk/meddesk/internal/app"
	"github.com/meddesk/meddesk/internal/config"
	"github.com/meddesk/meddesk/internal/logging"
	"github.com/meddesk/meddesk/internal/output"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "meddesk",
		Usage:   "Patient management client",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			RegisterCommand(),
			PatientCommand(),
			DiagnosisCommand(),
			TUICommand(),
			LogCommand(),
		},
		Before: func(c *cli.Context) error {
			if _, err := output.ParseFormat(c.String("output")); err != nil {
				return err
			}
			if lvl := c.String("log-level"); lvl != "" {
				return logging.Validate(lvl)
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path",
			EnvVars: []string{"MEDDESK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "API base URL (overrides api_url)",
			EnvVars: []string{"MEDDESK_API_URL"},
		},
		&cli.StringFlag{
			Name:    "state-dir",
			Usage:   "Directory for tokens, cookies and logs (overrides state_dir)",
			EnvVars: []string{"MEDDESK_STATE_DIR"},
		},
		&cli.StringFlag{
			Name:    "token-backend",
			Usage:   "Token storage: cookie, file or redis (overrides token_backend)",
			EnvVars: []string{"MEDDESK_TOKEN_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"MEDDESK_LOG_LEVEL"},
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config       string
	APIURL       string
	StateDir     string
	TokenBackend string
	Output       string
	LogLevel     string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:       c.String("config"),
		APIURL:       c.String("api-url"),
		StateDir:     c.String("state-dir"),
		TokenBackend: c.String("token-backend"),
		Output:       c.String("output"),
		LogLevel:     c.String("log-level"),
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	flags := ParseGlobalFlags(c)
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return config.Config{}, err
	}
	if flags.APIURL != "" {
		cfg.APIURL = flags.APIURL
	}
	if flags.StateDir != "" {
		cfg.StateDir = flags.StateDir
	}
	if b := strings.ToLower(strings.TrimSpace(flags.TokenBackend)); b != "" {
		switch b {
		case config.BackendCookie, config.BackendFile, config.BackendRedis:
			cfg.TokenBackend = b
		default:
			return config.Config{}, fmt.Errorf("token backend %q: want cookie, file or redis", flags.TokenBackend)
		}
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	return cfg, nil
}

// openApp wires the client stack with logs going to the CLI's error writer.
func openApp(c *cli.Context) (*app.App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	return app.New(c.Context, cfg, logger)
}

// render writes data to the app writer in the selected output format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.Render(writer(c), format, data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return io.Discard
}

// printf writes a plain status line, which is suppressed for json and yaml
// output so those stay machine-readable.
func printf(c *cli.Context, format string, args ...any) {
	if f, _ := output.ParseFormat(c.String("output")); f != output.FormatTable {
		return
	}
	fmt.Fprintf(writer(c), format+"\n", args...)
}
