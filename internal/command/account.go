package command

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/output"
	"github.com/meddesk/meddesk/internal/session"
)

var errNotLoggedIn = errors.New("not logged in (run meddesk login)")

// LoginCommand signs in and stores the token in the configured backend.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in as a doctor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account name",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (read from stdin when omitted)",
				EnvVars: []string{"MEDDESK_PASSWORD"},
			},
		},
		Action: login,
	}
}

func login(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		var err error
		if password, err = readPassword(c); err != nil {
			return err
		}
	}

	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	creds := session.Credentials{Username: c.String("username"), Password: password}
	if err := a.Session.Login(c.Context, creds); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	snap := a.Session.State().Snapshot()
	return render(c, profileView{Name: snap.Name, DoctorID: snap.DoctorID})
}

func readPassword(c *cli.Context) (string, error) {
	if c.App.Reader == nil {
		return "", errors.New("password is required")
	}
	fmt.Fprint(c.App.ErrWriter, "Password: ")
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("password is required")
	}
	return line, nil
}

// LogoutCommand forgets the stored token.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(c *cli.Context) error {
			a, err := openApp(c)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Session.Logout(c.Context); err != nil {
				return err
			}
			printf(c, "Logged out")
			return nil
		},
	}
}

// WhoamiCommand verifies the stored token against the info endpoint.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in doctor",
		Action: func(c *cli.Context) error {
			a, err := openApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.Session.State().Token(); !ok {
				return errNotLoggedIn
			}
			profile, err := a.Session.Info(c.Context)
			if errors.Is(err, session.ErrVerificationFailed) || errors.Is(err, api.ErrUnauthorized) {
				if rerr := a.Session.ResetToken(c.Context); rerr != nil {
					a.Logger.Warn("reset token failed", "error", rerr)
				}
				return fmt.Errorf("session expired, please login again: %w", err)
			}
			if err != nil {
				return err
			}
			return render(c, profileView{Name: profile.Name, DoctorID: profile.ID})
		},
	}
}

// RegisterCommand creates a doctor account.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a doctor account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account name", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true, EnvVars: []string{"MEDDESK_PASSWORD"}},
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
		},
		Action: func(c *cli.Context) error {
			a, err := openApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Client.Register(c.Context, api.Registration{
				Username: c.String("username"),
				Password: c.String("password"),
				Name:     c.String("name"),
				Email:    c.String("email"),
			})
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			return render(c, userView(user))
		},
	}
}

type profileView struct {
	Name     string `json:"name"`
	DoctorID api.ID `json:"doctor_id"`
}

func (p profileView) Table() output.Table {
	t := output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("Name", p.Name)
	t.AddRow("Doctor ID", p.DoctorID.String())
	return t
}

type userView api.User

func (u userView) Table() output.Table {
	t := output.Table{Headers: []string{"ID", "USERNAME", "NAME", "EMAIL"}}
	t.AddRow(u.ID.String(), u.Username, u.Name, u.Email)
	return t
}
