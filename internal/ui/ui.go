package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/prefs"
	"github.com/meddesk/meddesk/internal/session"
	"github.com/meddesk/meddesk/internal/state"
)

const (
	defaultPollTick = 2 * time.Second
	defaultPageSize = 20
)

// Options configure the TUI.
type Options struct {
	Context   context.Context
	Session   *session.Manager
	Patients  api.PatientService
	Diagnoses api.DiagnosisService
	Store     *state.Store
	Refresh   func(context.Context) // fetch now; nil disables manual refresh
	PollTick  time.Duration         // how often the UI re-reads the store
	Prefs     prefs.Prefs           // theme, page size and remembered username
	PrefsPath string
	Logger    *slog.Logger
}

// Model is the bubbletea model for the whole application.
type Model struct {
	ctx       context.Context
	session   *session.Manager
	patients  api.PatientService
	diagnoses api.DiagnosisService
	store     *state.Store
	refresh   func(context.Context)
	logger    *slog.Logger
	pollTick  time.Duration
	pageSize  int
	prefs     prefs.Prefs
	prefsPath string

	router *Router
	theme  Theme
	styles Styles
	keys   keyMap
	help   help.Model

	width  int
	height int

	login loginForm

	table      table.Model
	search     textinput.Model
	searching  bool
	query      string
	results    []api.Patient
	hasResults bool
	rows       []api.Patient
	snapshot   state.Snapshot

	detail      viewport.Model
	selected    api.Patient
	diagnosesOf api.ID
	diagList    []api.Diagnosis
	diagErr     error
	diagLoading bool

	flash    string
	flashErr bool
	busy     bool
}

// New builds the model and registers its router with the session so logout
// returns to the login screen.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tick := opts.PollTick
	if tick <= 0 {
		tick = defaultPollTick
	}
	pageSize := opts.Prefs.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	start := RouteLogin
	if opts.Session.Status() == session.Authenticated {
		start = RoutePatients
	}
	router := NewRouter(start)
	opts.Session.SetRouter(router)

	theme := GetTheme(opts.Prefs.Theme)
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "patient name"

	m := Model{
		ctx:       ctx,
		session:   opts.Session,
		patients:  opts.Patients,
		diagnoses: opts.Diagnoses,
		store:     opts.Store,
		refresh:   opts.Refresh,
		logger:    logger,
		pollTick:  tick,
		pageSize:  pageSize,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		router:    router,
		keys:      defaultKeyMap(),
		help:      help.New(),
		login:     newLoginForm(opts.Prefs.LastUsername),
		search:    search,
		detail:    viewport.New(80, 20),
		table: table.New(
			table.WithColumns(patientColumns(80)),
			table.WithFocused(true),
			table.WithHeight(pageSize),
		),
	}
	m.applyTheme(theme)
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	m.rebuildRows()
	return m
}

// Router exposes the screen stack.
func (m Model) Router() *Router {
	return m.router
}

// Run starts the TUI and blocks until quit or ctx is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd(), textinput.Blink}
	if m.router.Current() != RouteLogin {
		cmds = append(cmds, m.verifyCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tickMsg:
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
			m.rebuildRows()
		}
		return m, m.tickCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.flash, m.flashErr = "", false
		switch m.router.Current() {
		case RouteLogin:
			return m.handleLoginKey(msg)
		case RouteDetail:
			return m.handleDetailKey(msg)
		case RouteHelp:
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			if key.Matches(msg, m.keys.Help, m.keys.Back) {
				m.router.Back()
			}
			return m, nil
		default:
			return m.handlePatientsKey(msg)
		}

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.login.err = describeLoginError(msg.err)
			return m, nil
		}
		m.prefs.LastUsername = strings.TrimSpace(m.login.username.Value())
		m.login.reset(m.prefs.LastUsername)
		m.router.Replace(RoutePatients)
		m.setFlash("Signed in as "+m.session.State().Name(), false)
		return m, tea.Batch(m.refreshCmd(), m.savePrefsCmd())

	case verifyResultMsg:
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrVerificationFailed) || errors.Is(msg.err, api.ErrUnauthorized) {
				m.logger.Info("stored session rejected", "error", msg.err)
				m.router.Replace(RouteLogin)
				m.login.err = "Session expired, please login again"
				return m, m.resetTokenCmd()
			}
			m.setFlash("Verify failed: "+msg.err.Error(), true)
			return m, nil
		}
		return m, m.refreshCmd()

	case resetTokenMsg:
		if msg.err != nil {
			m.logger.Warn("reset token failed", "error", msg.err)
		}
		m.clearPatients()
		return m, nil

	case logoutResultMsg:
		m.busy = false
		m.clearPatients()
		if msg.err != nil {
			m.setFlash("Logout: "+msg.err.Error(), true)
			return m, nil
		}
		m.login.err = ""
		m.setFlash("Logged out", false)
		return m, nil

	case refreshedMsg:
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
		}
		m.rebuildRows()
		return m, nil

	case searchResultMsg:
		if msg.query != m.query {
			return m, nil
		}
		if msg.err != nil {
			m.setFlash("Search failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.results = msg.patients
		m.hasResults = true
		m.rebuildRows()
		m.setFlash(fmt.Sprintf("%d match(es) for %q", len(msg.patients), msg.query), false)
		return m, nil

	case diagnosesMsg:
		if msg.patientID != m.diagnosesOf {
			return m, nil
		}
		m.diagLoading = false
		m.diagList, m.diagErr = msg.diagnoses, msg.err
		m.updateDetail()
		return m, nil

	case statusResultMsg:
		m.busy = false
		if msg.err != nil {
			m.setFlash("Status update failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.applyPatient(msg.patient)
		m.setFlash(fmt.Sprintf("%s: %s", msg.patient.Name, msg.patient.Status), false)
		return m, m.refreshCmd()

	case prefsSavedMsg:
		if msg.err != nil {
			m.logger.Warn("save prefs failed", "error", msg.err)
		}
		return m, nil
	}

	if m.router.Current() == RouteLogin {
		var cmd tea.Cmd
		m.login, cmd = m.login.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyTheme(t Theme) {
	m.theme = t
	m.styles = t.Styles()
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(m.styles.AccentText.GetForeground()).Bold(true)
	ts.Selected = m.styles.Selected
	m.table.SetStyles(ts)
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash, m.flashErr = text, isErr
}

func (m *Model) clearPatients() {
	if m.store != nil {
		m.store.Clear()
		m.snapshot = m.store.Snapshot()
	} else {
		m.snapshot = state.Snapshot{}
	}
	m.results, m.hasResults, m.query = nil, false, ""
	m.selected = api.Patient{}
	m.diagList, m.diagErr, m.diagnosesOf = nil, nil, ""
	m.rebuildRows()
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyHeight := m.height - 4 // header, footer, borders
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	tableHeight := bodyHeight - 1
	if tableHeight > m.pageSize+1 {
		tableHeight = m.pageSize + 1
	}
	m.table.SetColumns(patientColumns(m.width - 4))
	m.table.SetWidth(m.width - 4)
	m.table.SetHeight(tableHeight)
	m.detail.Width = m.width - 4
	m.detail.Height = bodyHeight
	m.help.Width = m.width
	m.search.Width = m.width / 3
	m.updateDetail()
}
