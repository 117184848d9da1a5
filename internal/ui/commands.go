package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/prefs"
	"github.com/meddesk/meddesk/internal/session"
)

type tickMsg time.Time

type loginResultMsg struct{ err error }

type verifyResultMsg struct {
	profile api.Profile
	err     error
}

type logoutResultMsg struct{ err error }

type resetTokenMsg struct{ err error }

type refreshedMsg struct{}

type searchResultMsg struct {
	query    string
	patients []api.Patient
	err      error
}

type diagnosesMsg struct {
	patientID api.ID
	diagnoses []api.Diagnosis
	err       error
}

type statusResultMsg struct {
	patient api.Patient
	err     error
}

type prefsSavedMsg struct{ err error }

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.pollTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loginCmd(creds session.Credentials) tea.Cmd {
	ctx, mgr := m.ctx, m.session
	return func() tea.Msg {
		return loginResultMsg{err: mgr.Login(ctx, creds)}
	}
}

func (m Model) verifyCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.session
	return func() tea.Msg {
		profile, err := mgr.Info(ctx)
		return verifyResultMsg{profile: profile, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.session
	return func() tea.Msg {
		return logoutResultMsg{err: mgr.Logout(ctx)}
	}
}

func (m Model) resetTokenCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.session
	return func() tea.Msg {
		return resetTokenMsg{err: mgr.ResetToken(ctx)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	if m.refresh == nil {
		return nil
	}
	ctx, refresh := m.ctx, m.refresh
	return func() tea.Msg {
		refresh(ctx)
		return refreshedMsg{}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	ctx, svc := m.ctx, m.patients
	doctorID, _ := m.session.State().DoctorID()
	return func() tea.Msg {
		patients, err := svc.SearchPatients(ctx, doctorID, query)
		return searchResultMsg{query: query, patients: patients, err: err}
	}
}

func (m Model) diagnosesCmd(patientID api.ID) tea.Cmd {
	ctx, svc := m.ctx, m.diagnoses
	return func() tea.Msg {
		diagnoses, err := svc.ListPatientDiagnoses(ctx, patientID)
		return diagnosesMsg{patientID: patientID, diagnoses: diagnoses, err: err}
	}
}

func (m Model) toggleStatusCmd(p api.Patient) tea.Cmd {
	next := api.StatusVisited
	if p.Status == api.StatusVisited {
		next = api.StatusNotVisited
	}
	ctx, svc := m.ctx, m.patients
	return func() tea.Msg {
		updated, err := svc.UpdatePatientStatus(ctx, p.ID, next)
		return statusResultMsg{patient: updated, err: err}
	}
}

func (m Model) savePrefsCmd() tea.Cmd {
	path, p := m.prefsPath, m.prefs
	p.Theme, p.PageSize = m.theme.Name, m.pageSize
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}
