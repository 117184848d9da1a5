package command

import (
	"errors"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/output"
)

// DiagnosisCommand returns the diagnosis subcommand group.
func DiagnosisCommand() *cli.Command {
	return &cli.Command{
		Name:    "diagnosis",
		Aliases: []string{"dx"},
		Usage:   "Browse and record diagnoses",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List diagnoses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "patient", Usage: "Filter by patient ID"},
					&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "Filter by keyword"},
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Page size"},
				},
				Action: diagnosisList,
			},
			{
				Name:      "patient",
				Usage:     "List one patient's diagnoses",
				ArgsUsage: "PATIENT_ID",
				Action:    diagnosisForPatient,
			},
			{
				Name:  "create",
				Usage: "Record a diagnosis",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "patient", Usage: "Patient ID", Required: true},
					&cli.StringFlag{Name: "description", Aliases: []string{"m"}, Usage: "Findings", Required: true},
					&cli.StringFlag{Name: "suggestion", Usage: "Treatment suggestion"},
					&cli.StringFlag{Name: "video", Usage: "Video reference"},
				},
				Action: diagnosisCreate,
			},
		},
	}
}

func diagnosisList(c *cli.Context) error {
	if c.Int("page") < 1 || c.Int("limit") < 1 {
		return errors.New("page and limit must be positive")
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	diagnoses, err := a.Client.ListDiagnoses(c.Context, api.DiagnosisQuery{
		PatientID: api.ID(strings.TrimSpace(c.String("patient"))),
		Keyword:   strings.TrimSpace(c.String("keyword")),
		Page:      c.Int("page"),
		Limit:     c.Int("limit"),
	})
	if err != nil {
		return err
	}
	return render(c, diagnosisRows(diagnoses))
}

func diagnosisForPatient(c *cli.Context) error {
	id, err := patientArg(c)
	if err != nil {
		return err
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	diagnoses, err := a.Client.ListPatientDiagnoses(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, diagnosisRows(diagnoses))
}

func diagnosisCreate(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.Client.CreateDiagnosis(c.Context, api.DiagnosisInput{
		PatientID:   api.ID(strings.TrimSpace(c.String("patient"))),
		Description: c.String("description"),
		Suggestion:  c.String("suggestion"),
		Video:       c.String("video"),
	})
	if err != nil {
		return err
	}
	return render(c, diagnosisRows{d})
}

type diagnosisRows []api.Diagnosis

func (l diagnosisRows) Table() output.Table {
	t := output.Table{Headers: []string{"ID", "PATIENT", "DATE", "DESCRIPTION", "SUGGESTION"}}
	for _, d := range l {
		t.AddRow(d.ID.String(), d.PatientID.String(), formatTime(d.DiagnosedAt(), d.Date), oneLine(d.Description), oneLine(d.Suggestion))
	}
	return t
}

// formatTime prints parsed timestamps uniformly and passes unparsed ones
// through.
func formatTime(t time.Time, raw string) string {
	if t.IsZero() {
		if raw == "" {
			return "-"
		}
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}
