package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/app"
	"github.com/meddesk/meddesk/internal/output"
)

// PatientCommand returns the patient subcommand group.
func PatientCommand() *cli.Command {
	return &cli.Command{
		Name:    "patient",
		Aliases: []string{"p"},
		Usage:   "Manage patients",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a doctor's patients",
				Flags:  []cli.Flag{doctorFlag()},
				Action: patientList,
			},
			{
				Name:      "get",
				Usage:     "Show one patient",
				ArgsUsage: "PATIENT_ID",
				Action:    patientGet,
			},
			{
				Name:   "add",
				Usage:  "Add a patient",
				Flags:  append(patientFlags(true), doctorFlag()),
				Action: patientAdd,
			},
			{
				Name:      "update",
				Usage:     "Update a patient; unset flags keep their current value",
				ArgsUsage: "PATIENT_ID",
				Flags:     patientFlags(false),
				Action:    patientUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a patient",
				ArgsUsage: "PATIENT_ID",
				Action:    patientDelete,
			},
			{
				Name:      "search",
				Usage:     "Search a doctor's patients by name",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{doctorFlag()},
				Action:    patientSearch,
			},
			{
				Name:      "status",
				Usage:     "Set a patient's status (visited or not-visited)",
				ArgsUsage: "PATIENT_ID STATUS",
				Action:    patientStatus,
			},
		},
	}
}

func doctorFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "doctor",
		Aliases: []string{"d"},
		Usage:   "Doctor ID (defaults to the signed-in doctor)",
	}
}

func patientFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Patient name", Required: create},
		&cli.IntFlag{Name: "age", Usage: "Age in years"},
		&cli.StringFlag{Name: "gender", Aliases: []string{"g"}, Usage: "Gender"},
		&cli.StringFlag{Name: "email", Usage: "Email address"},
		&cli.StringFlag{Name: "history", Usage: "Medical history"},
		&cli.StringFlag{Name: "status", Usage: "visited or not-visited"},
	}
}

// doctorID prefers --doctor and falls back to the signed-in doctor.
func doctorID(c *cli.Context, a *app.App) (api.ID, error) {
	if id := strings.TrimSpace(c.String("doctor")); id != "" {
		return api.ID(id), nil
	}
	if _, ok := a.Session.State().Token(); !ok {
		return "", errNotLoggedIn
	}
	id, ok := a.Session.State().DoctorID()
	if !ok {
		return "", errors.New("no doctor id stored (run meddesk whoami or pass --doctor)")
	}
	return id, nil
}

func patientArg(c *cli.Context) (api.ID, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", errors.New("patient ID is required")
	}
	return api.ID(id), nil
}

// parseStatus maps CLI spellings onto the backend's status values.
func parseStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visited", "done", api.StatusVisited:
		return api.StatusVisited, nil
	case "not-visited", "pending", "waiting", api.StatusNotVisited:
		return api.StatusNotVisited, nil
	default:
		return "", fmt.Errorf("unknown status %q (valid: visited, not-visited)", s)
	}
}

func patientList(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := doctorID(c, a)
	if err != nil {
		return err
	}
	patients, err := a.Client.ListPatients(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, patientRows(patients))
}

func patientGet(c *cli.Context) error {
	id, err := patientArg(c)
	if err != nil {
		return err
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Client.GetPatient(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, patientDetail(p))
}

func patientAdd(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := doctorID(c, a)
	if err != nil {
		return err
	}
	in := api.PatientInput{DoctorID: id, Status: api.StatusNotVisited}
	if err := applyPatientFlags(c, &in); err != nil {
		return err
	}
	p, err := a.Client.AddPatient(c.Context, in)
	if err != nil {
		return err
	}
	return render(c, patientDetail(p))
}

func patientUpdate(c *cli.Context) error {
	id, err := patientArg(c)
	if err != nil {
		return err
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.Client.GetPatient(c.Context, id)
	if err != nil {
		return err
	}
	in := api.PatientInput{
		Name:           current.Name,
		Age:            current.Age,
		Gender:         current.Gender,
		MedicalHistory: current.MedicalHistory,
		Email:          current.Email,
		DoctorID:       current.DoctorID,
		Status:         current.Status,
	}
	if err := applyPatientFlags(c, &in); err != nil {
		return err
	}
	p, err := a.Client.UpdatePatient(c.Context, id, in)
	if err != nil {
		return err
	}
	return render(c, patientDetail(p))
}

func applyPatientFlags(c *cli.Context, in *api.PatientInput) error {
	if c.IsSet("name") {
		in.Name = strings.TrimSpace(c.String("name"))
	}
	if c.IsSet("age") {
		if c.Int("age") < 0 {
			return fmt.Errorf("age %d: must not be negative", c.Int("age"))
		}
		in.Age = c.Int("age")
	}
	if c.IsSet("gender") {
		in.Gender = c.String("gender")
	}
	if c.IsSet("email") {
		in.Email = c.String("email")
	}
	if c.IsSet("history") {
		in.MedicalHistory = c.String("history")
	}
	if c.IsSet("status") {
		status, err := parseStatus(c.String("status"))
		if err != nil {
			return err
		}
		in.Status = status
	}
	return nil
}

func patientDelete(c *cli.Context) error {
	id, err := patientArg(c)
	if err != nil {
		return err
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Client.DeletePatient(c.Context, id); err != nil {
		return err
	}
	printf(c, "Patient %s deleted", id)
	return nil
}

func patientSearch(c *cli.Context) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return errors.New("search name is required")
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := doctorID(c, a)
	if err != nil {
		return err
	}
	patients, err := a.Client.SearchPatients(c.Context, id, name)
	if err != nil {
		return err
	}
	return render(c, patientRows(patients))
}

func patientStatus(c *cli.Context) error {
	id, err := patientArg(c)
	if err != nil {
		return err
	}
	if c.NArg() < 2 {
		return errors.New("status is required (visited or not-visited)")
	}
	status, err := parseStatus(c.Args().Get(1))
	if err != nil {
		return err
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Client.UpdatePatientStatus(c.Context, id, status)
	if err != nil {
		return err
	}
	return render(c, patientDetail(p))
}

type patientRows []api.Patient

func (l patientRows) Table() output.Table {
	t := output.Table{Headers: []string{"ID", "NAME", "AGE", "GENDER", "STATUS", "CREATED"}}
	for _, p := range l {
		t.AddRow(p.ID.String(), p.Name, age(p.Age), p.Gender, p.Status, formatTime(p.CreatedAt(), p.Created))
	}
	return t
}

type patientDetail api.Patient

func (p patientDetail) Table() output.Table {
	t := output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("ID", p.ID.String())
	t.AddRow("Name", p.Name)
	t.AddRow("Age", age(p.Age))
	t.AddRow("Gender", p.Gender)
	t.AddRow("Email", p.Email)
	t.AddRow("Status", p.Status)
	t.AddRow("Doctor", p.DoctorID.String())
	t.AddRow("Created", formatTime(api.Patient(p).CreatedAt(), p.Created))
	t.AddRow("History", oneLine(p.MedicalHistory))
	return t
}

func age(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
