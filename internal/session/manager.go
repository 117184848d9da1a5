package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/meddesk/meddesk/internal/api"
)

var (
	// ErrVerificationFailed means the info endpoint returned no profile and
	// the user must sign in again.
	ErrVerificationFailed = errors.New("verification failed, please login again")
	// ErrInvalidLoginResponse means the login endpoint answered without a
	// token or doctor id.
	ErrInvalidLoginResponse = errors.New("invalid login response")
)

// Authenticator is the slice of the API the session drives. *api.Client
// implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	Info(ctx context.Context, token string) (*api.Profile, error)
}

var _ Authenticator = (*api.Client)(nil)

// Router is reset on logout so no screen keeps showing the previous
// doctor's data.
type Router interface {
	Reset()
}

// RouterFunc adapts a function to Router.
type RouterFunc func()

func (f RouterFunc) Reset() { f() }

// Credentials are the login form values.
type Credentials struct {
	Username string
	Password string
}

// Status is the inferred session state.
type Status int

const (
	Anonymous Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Manager runs the login, info and logout flows against a State.
type Manager struct {
	state    *State
	tokens   TokenStore
	auth     Authenticator
	logger   *slog.Logger

	routerMu sync.Mutex
	router   Router
	inflight atomic.Int32
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRouter sets the collaborator reset on logout.
func WithRouter(r Router) ManagerOption {
	return func(m *Manager) {
		m.router = r
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager wires a Manager. state and tokens must share the same token
// store the State was built with.
func NewManager(state *State, tokens TokenStore, authenticator Authenticator, options ...ManagerOption) *Manager {
	m := &Manager{state: state, tokens: tokens, auth: authenticator, logger: slog.Default()}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// State returns the session state the manager mutates.
func (m *Manager) State() *State {
	return m.state
}

// SetRouter replaces the logout collaborator. The UI registers itself here
// once it exists.
func (m *Manager) SetRouter(r Router) {
	m.routerMu.Lock()
	m.router = r
	m.routerMu.Unlock()
}

func (m *Manager) currentRouter() Router {
	m.routerMu.Lock()
	defer m.routerMu.Unlock()
	return m.router
}

// Status infers where the session is from the in-flight login and the token.
func (m *Manager) Status() Status {
	if m.inflight.Load() > 0 {
		return Authenticating
	}
	if _, ok := m.state.Token(); ok {
		return Authenticated
	}
	return Anonymous
}

// Login authenticates with creds. The username is trimmed and the password
// sent as typed. Endpoint errors are returned unchanged. Nothing is mutated
// until the response has been validated.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	m.inflight.Add(1)
	defer m.inflight.Add(-1)

	username := strings.TrimSpace(creds.Username)
	resp, err := m.auth.Login(ctx, username, creds.Password)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" || resp.ID == "" {
		m.logger.Warn("login response missing fields",
			"has_token", resp.AccessToken != "",
			"has_id", resp.ID != "",
		)
		return ErrInvalidLoginResponse
	}

	// The API reads the stored token, so the session only signs in once it
	// is persisted.
	if err := m.tokens.SetToken(ctx, resp.AccessToken); err != nil {
		m.logger.Error("persist token failed", "error", err)
		return fmt.Errorf("login: %w", err)
	}

	m.state.SetToken(resp.AccessToken)
	m.state.SetName(resp.Name)
	m.state.SetAvatar("")
	if err := m.state.SetDoctorID(ctx, resp.ID); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	m.logger.Info("logged in", "user", username, "doctor_id", resp.ID.String())
	return nil
}

// Info loads the current doctor's profile with the session token and
// applies it. ErrVerificationFailed is returned, with state untouched, when
// the endpoint has no profile to give.
func (m *Manager) Info(ctx context.Context) (api.Profile, error) {
	token, _ := m.state.Token()
	profile, err := m.auth.Info(ctx, token)
	if err != nil {
		return api.Profile{}, err
	}
	if profile == nil {
		return api.Profile{}, ErrVerificationFailed
	}
	m.state.SetName(profile.Name)
	m.state.SetAvatar("")
	if err := m.state.SetDoctorID(ctx, profile.ID); err != nil {
		return *profile, err
	}
	return *profile, nil
}

// Logout forgets the token, resets the router and then the state. It does
// not contact the server.
func (m *Manager) Logout(ctx context.Context) error {
	var errs []error
	if err := m.tokens.RemoveToken(ctx); err != nil {
		errs = append(errs, err)
	}
	if router := m.currentRouter(); router != nil {
		router.Reset()
	}
	if err := m.state.Reset(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("logout: %w", errors.Join(errs...))
	}
	m.logger.Info("logged out")
	return nil
}

// ResetToken forgets the token and resets the state, leaving the router
// alone. Callers use it after a rejected Info.
func (m *Manager) ResetToken(ctx context.Context) error {
	var errs []error
	if err := m.tokens.RemoveToken(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := m.state.Reset(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("reset token: %w", errors.Join(errs...))
	}
	return nil
}
