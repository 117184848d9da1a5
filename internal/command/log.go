package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/meddesk/meddesk/internal/logging"
	"github.com/meddesk/meddesk/internal/logtail"
)

// LogCommand prints the tail of the client log written in TUI mode.
func LogCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Show the client log",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "lines", Aliases: []string{"n"}, Value: 50, Usage: "Lines from the end (0 for all)"},
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Value: "debug", Usage: "Minimum level: debug, info, warn, error"},
			&cli.StringFlag{Name: "grep", Usage: "Only lines containing every word"},
		},
		Action: func(c *cli.Context) error {
			if err := logging.Validate(c.String("level")); err != nil {
				return err
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			lines, err := logtail.Read(cfg.LogPath(), 0)
			if err != nil {
				return err
			}
			lines = logtail.Filter(lines, logging.ParseLevel(c.String("level")), c.String("grep"))
			if n := c.Int("lines"); n > 0 && len(lines) > n {
				lines = lines[len(lines)-n:]
			}
			if len(lines) == 0 {
				printf(c, "No matching lines in %s", cfg.LogPath())
				return nil
			}
			_, err = fmt.Fprintln(writer(c), strings.Join(lines, "\n"))
			return err
		},
	}
}
