package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/meddesk/meddesk/internal/api"
)

func (m Model) View() string {
	switch m.router.Current() {
	case RouteLogin:
		return lipgloss.JoinVertical(lipgloss.Left, m.renderLogin(), m.renderFooter())
	case RouteDetail:
		body := m.styles.Panel.Render(m.detail.View())
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
	case RouteHelp:
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderHelp(), m.renderFooter())
	default:
		body := m.styles.Panel.Render(m.renderPatients())
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
	}
}

func (m Model) renderHeader() string {
	s := m.styles
	snap := m.session.State().Snapshot()
	sep := "  "

	parts := []string{s.Logo.Render("meddesk")}
	name := snap.Name
	if name == "" {
		name = "doctor " + snap.DoctorID.String()
	}
	parts = append(parts, s.Text.Render(name))

	waiting, seen := 0, 0
	for _, p := range m.snapshot.Patients {
		if p.Status == api.StatusVisited {
			seen++
		} else {
			waiting++
		}
	}
	parts = append(parts,
		s.MutedText.Render("Patients:")+" "+s.Text.Render(fmt.Sprintf("%d", len(m.snapshot.Patients))),
		s.WarningText.Render(fmt.Sprintf("waiting %d", waiting)),
		s.SuccessText.Render(fmt.Sprintf("seen %d", seen)),
	)

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, s.DangerText.Render("OFFLINE")+" "+s.MutedText.Render(classifyError(m.snapshot.LastError)))
	case m.snapshot.LastError != nil:
		parts = append(parts, s.WarningText.Render(classifyError(m.snapshot.LastError)))
	case !m.snapshot.LastUpdated.IsZero():
		parts = append(parts, s.FaintText.Render(m.snapshot.LastUpdated.Format("15:04:05")))
	}

	header := strings.Join(parts, sep)
	if m.width > 0 {
		return s.Header.Width(m.width).Render(header)
	}
	return s.Header.Render(header)
}

func (m Model) renderFooter() string {
	s := m.styles
	var line string
	switch {
	case m.flash != "" && m.flashErr:
		line = s.DangerText.Render(m.flash)
	case m.flash != "":
		line = s.InfoText.Render(m.flash)
	case m.router.Current() == RouteLogin:
		line = m.help.View(loginKeys{m.keys})
	default:
		line = m.help.View(m.keys)
	}
	if m.width > 0 {
		return s.Footer.Width(m.width).Render(line)
	}
	return s.Footer.Render(line)
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	themes := m.styles.MutedText.Render("Themes: " + strings.Join(ThemeNames(), ", ") + " (current " + m.theme.Name + ")")
	return m.styles.FocusPanel.Render(h.View(m.keys) + "\n\n" + themes)
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "API unreachable"
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "Client.Timeout"):
		return "API timeout"
	case strings.Contains(msg, "status 401"):
		return "session rejected"
	default:
		return truncate(msg, 60)
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
