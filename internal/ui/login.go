package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/session"
)

type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	err      string
}

func newLoginForm(username string) loginForm {
	user := textinput.New()
	user.Prompt = "Username  "
	user.Placeholder = "doctor account"
	user.CharLimit = 64

	pass := textinput.New()
	pass.Prompt = "Password  "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	f := loginForm{username: user, password: pass}
	f.reset(username)
	return f
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	if i == 0 {
		f.username.Focus()
		f.password.Blur()
		return
	}
	f.username.Blur()
	f.password.Focus()
}

// reset clears the form, keeping username prefilled and focusing the
// password when one is given.
func (f *loginForm) reset(username string) {
	f.username.SetValue(username)
	f.password.SetValue("")
	f.err = ""
	if username != "" {
		f.setFocus(1)
		return
	}
	f.setFocus(0)
}

func (f *loginForm) credentials() session.Credentials {
	return session.Credentials{Username: f.username.Value(), Password: f.password.Value()}
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		m.login.setFocus(1 - m.login.focus)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		creds := m.login.credentials()
		if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
			m.login.err = "Username and password are required"
			return m, nil
		}
		m.busy = true
		m.login.err = ""
		return m, m.loginCmd(creds)
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) renderLogin() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Logo.Render("meddesk") + "  " + s.MutedText.Render("sign in"))
	b.WriteString("\n\n")
	b.WriteString(m.login.username.View())
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")
	switch {
	case m.busy:
		b.WriteString(s.WarningText.Render("Signing in..."))
	case m.login.err != "":
		b.WriteString(s.DangerText.Render(m.login.err))
	}
	panel := s.FocusPanel.Width(48).Render(b.String())
	if m.width <= 0 || m.height <= 0 {
		return panel
	}
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, panel)
}

func describeLoginError(err error) string {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, api.ErrUnauthorized):
		return "Invalid username or password"
	case errors.Is(err, session.ErrInvalidLoginResponse):
		return "The server returned an unexpected login response"
	default:
		return "Login failed: " + err.Error()
	}
}
