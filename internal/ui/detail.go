package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/meddesk/meddesk/internal/api"
)

func (m Model) openDetail(p api.Patient) (tea.Model, tea.Cmd) {
	m.selected = p
	m.diagnosesOf = p.ID
	m.diagList, m.diagErr = nil, nil
	m.diagLoading = true
	m.router.Push(RouteDetail)
	m.updateDetail()
	m.detail.GotoTop()
	return m, m.diagnosesCmd(p.ID)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.router.Back()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.router.Push(RouteHelp)
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.diagLoading = true
		m.updateDetail()
		return m, m.diagnosesCmd(m.selected.ID)
	case key.Matches(msg, m.keys.ToggleStatus):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.toggleStatusCmd(m.selected)
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) updateDetail() {
	m.detail.SetContent(m.detailContent())
}

func (m Model) detailContent() string {
	if m.selected.ID == "" {
		return ""
	}
	s := m.styles
	p := m.selected
	var b strings.Builder

	b.WriteString(s.AccentText.Render(p.Name))
	b.WriteString("  ")
	b.WriteString(s.StatusStyle(p.Status).Render(orDash(p.Status)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(s.MutedText.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(s.Text.Render(orDash(value)))
		b.WriteString("\n")
	}
	field("ID", p.ID.String())
	age := ""
	if p.Age > 0 {
		age = fmt.Sprintf("%d", p.Age)
	}
	field("Age", age)
	field("Gender", p.Gender)
	field("Email", p.Email)
	if t := p.CreatedAt(); !t.IsZero() {
		field("Created", t.Format("2006-01-02 15:04"))
	} else {
		field("Created", p.Created)
	}
	b.WriteString("\n")
	b.WriteString(s.MutedText.Render("Medical history"))
	b.WriteString("\n")
	b.WriteString(s.Text.Render(orDash(strings.TrimSpace(p.MedicalHistory))))
	b.WriteString("\n\n")

	b.WriteString(s.AccentText.Render("Diagnoses"))
	b.WriteString("\n")
	switch {
	case m.diagLoading:
		b.WriteString(s.WarningText.Render("Loading..."))
	case m.diagErr != nil:
		b.WriteString(s.DangerText.Render("Failed to load diagnoses: " + m.diagErr.Error()))
	case len(m.diagList) == 0:
		b.WriteString(s.MutedText.Render("No diagnoses recorded."))
	default:
		for _, d := range m.diagList {
			date := d.Date
			if t := d.DiagnosedAt(); !t.IsZero() {
				date = t.Format("2006-01-02 15:04")
			}
			b.WriteString(s.InfoText.Render("#"+d.ID.String()) + "  " + s.MutedText.Render(orDash(date)))
			b.WriteString("\n")
			b.WriteString("  " + s.Text.Render(orDash(d.Description)))
			b.WriteString("\n")
			if d.Suggestion != "" {
				b.WriteString("  " + s.SuccessText.Render("→ ") + s.Text.Render(d.Suggestion))
				b.WriteString("\n")
			}
			if d.Video != "" {
				b.WriteString("  " + s.FaintText.Render(d.Video))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
