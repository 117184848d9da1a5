package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/meddesk/meddesk/internal/api"
)

func patientColumns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Age", Width: 4},
		{Title: "Gender", Width: 7},
		{Title: "Status", Width: 8},
		{Title: "Created", Width: 16},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 2
	}
	nameWidth := width - used - 2
	if nameWidth < 12 {
		nameWidth = 12
	}
	return []table.Column{
		fixed[0],
		{Title: "Name", Width: nameWidth},
		fixed[1], fixed[2], fixed[3], fixed[4],
	}
}

func patientRow(p api.Patient) table.Row {
	created := p.Created
	if t := p.CreatedAt(); !t.IsZero() {
		created = t.Format("2006-01-02 15:04")
	}
	age := ""
	if p.Age > 0 {
		age = strconv.Itoa(p.Age)
	}
	return table.Row{p.ID.String(), p.Name, age, p.Gender, p.Status, created}
}

// rebuildRows refreshes the table from search results when a search is
// active, otherwise from the polled snapshot. The cursor stays on the same
// patient when it is still listed.
func (m *Model) rebuildRows() {
	source := m.snapshot.Patients
	if m.hasResults {
		source = m.results
	}
	var keep api.ID
	if cur, ok := m.currentPatient(); ok {
		keep = cur.ID
	}

	m.rows = append(m.rows[:0:0], source...)
	rows := make([]table.Row, len(m.rows))
	cursor := 0
	for i, p := range m.rows {
		rows[i] = patientRow(p)
		if p.ID == keep {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m Model) currentPatient() (api.Patient, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return api.Patient{}, false
	}
	return m.rows[i], true
}

// applyPatient replaces a patient everywhere it is shown.
func (m *Model) applyPatient(p api.Patient) {
	for i := range m.results {
		if m.results[i].ID == p.ID {
			m.results[i] = p
		}
	}
	for i := range m.snapshot.Patients {
		if m.snapshot.Patients[i].ID == p.ID {
			m.snapshot.Patients[i] = p
		}
	}
	if m.selected.ID == p.ID {
		m.selected = p
		m.updateDetail()
	}
	m.rebuildRows()
}

func (m Model) handlePatientsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.router.Push(RouteHelp)
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.applyTheme(GetTheme(NextTheme(m.theme.Name)))
		return m, m.savePrefsCmd()
	case key.Matches(msg, m.keys.Back):
		if m.hasResults {
			m.results, m.hasResults, m.query = nil, false, ""
			m.rebuildRows()
			m.setFlash("", false)
		}
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.query)
		m.search.Focus()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.setFlash("Refreshing...", false)
		if m.hasResults {
			return m, tea.Batch(m.refreshCmd(), m.searchCmd(m.query))
		}
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Logout):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.logoutCmd()
	case key.Matches(msg, m.keys.Open):
		p, ok := m.currentPatient()
		if !ok {
			return m, nil
		}
		return m.openDetail(p)
	case key.Matches(msg, m.keys.ToggleStatus):
		p, ok := m.currentPatient()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.toggleStatusCmd(p)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		m.query = query
		if query == "" {
			m.results, m.hasResults = nil, false
			m.rebuildRows()
			return m, nil
		}
		m.setFlash(fmt.Sprintf("Searching %q...", query), false)
		return m, m.searchCmd(query)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) renderPatients() string {
	s := m.styles
	var b strings.Builder

	title := "Patients"
	if m.hasResults {
		title = fmt.Sprintf("Search %q", m.query)
	}
	b.WriteString(s.AccentText.Render(title))
	b.WriteString(s.MutedText.Render(fmt.Sprintf("  %d", len(m.rows))))
	if m.searching {
		b.WriteString("  " + m.search.View())
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		switch {
		case m.hasResults:
			b.WriteString(s.MutedText.Render("No matching patients. esc to clear the search."))
		case !m.snapshot.HasData:
			b.WriteString(s.MutedText.Render("Loading patients..."))
		default:
			b.WriteString(s.MutedText.Render("No patients assigned."))
		}
		return b.String()
	}
	b.WriteString(m.table.View())
	return b.String()
}
