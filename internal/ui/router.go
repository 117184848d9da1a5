package ui

import "sync"

// Route names a screen.
type Route int

const (
	RouteLogin Route = iota
	RoutePatients
	RouteDetail
	RouteHelp
)

func (r Route) String() string {
	switch r {
	case RoutePatients:
		return "patients"
	case RouteDetail:
		return "detail"
	case RouteHelp:
		return "help"
	default:
		return "login"
	}
}

// Router is a screen stack. It satisfies session.Router: Reset drops every
// screen and returns to login. It is safe for use from tea.Cmd goroutines.
type Router struct {
	mu     sync.Mutex
	stack  []Route
	resets int
}

// NewRouter starts at start.
func NewRouter(start Route) *Router {
	return &Router{stack: []Route{start}}
}

// Current returns the top screen.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stack[len(r.stack)-1]
}

// Push opens a screen on top of the current one. Pushing the current screen
// is a no-op.
func (r *Router) Push(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stack[len(r.stack)-1] == route {
		return
	}
	r.stack = append(r.stack, route)
}

// Back closes the top screen. The last screen is never popped.
func (r *Router) Back() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// Replace swaps the whole stack for a single screen.
func (r *Router) Replace(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = []Route{route}
}

// Reset returns to the login screen.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = []Route{RouteLogin}
	r.resets++
}

// Resets reports how many times Reset has run.
func (r *Router) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}
