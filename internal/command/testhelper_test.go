package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// mockAPI is a small in-memory patient backend.
type mockAPI struct {
	*httptest.Server

	mu       sync.Mutex
	patients map[string]map[string]any
	bodies   map[string]map[string]any // last JSON body per "METHOD path"
	queries  map[string]string         // last raw query per path
	info     bool                      // whether /users/info returns data
}

func newMockAPI(t *testing.T) *mockAPI {
	t.Helper()
	m := &mockAPI{
		patients: map[string]map[string]any{
			"1": {"id": 1, "name": "Bob", "age": 40, "gender": "M", "status": "未就诊", "doctor_id": 7},
			"2": {"id": 2, "name": "Carol", "age": 33, "gender": "F", "status": "已就诊", "doctor_id": 7},
		},
		bodies:  map[string]map[string]any{},
		queries: map[string]string{},
		info:    true,
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *mockAPI) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.Body != nil {
		var body map[string]any
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			m.bodies[r.Method+" "+r.URL.Path] = body
		}
	}
	m.queries[r.URL.Path] = r.URL.RawQuery

	authed := r.Header.Get("Authorization") == "Bearer T1"
	switch {
	case r.URL.Path == "/users/login":
		jsonResponse(w, http.StatusOK, map[string]any{"access_token": "T1", "name": "Alice", "id": 7})
	case r.URL.Path == "/users/register":
		jsonResponse(w, http.StatusCreated, map[string]any{"user": map[string]any{"id": 8, "username": "bob", "name": "Bob"}})
	case r.URL.Path == "/users/info":
		if !authed || !m.info {
			jsonResponse(w, http.StatusOK, map[string]any{"data": nil})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"data": map[string]any{"name": "Alice", "id": 7}})
	case !authed:
		jsonResponse(w, http.StatusUnauthorized, map[string]any{"error": "missing token"})
	case r.URL.Path == "/users/7/patients", r.URL.Path == "/users/search":
		name := r.URL.Query().Get("name")
		var list []map[string]any
		for _, id := range []string{"1", "2"} {
			if p, ok := m.patients[id]; ok && strings.Contains(p["name"].(string), name) {
				list = append(list, p)
			}
		}
		jsonResponse(w, http.StatusOK, map[string]any{"patients": list})
	case r.URL.Path == "/patient/" && r.Method == http.MethodPost:
		p := m.bodies["POST /patient/"]
		p["id"] = 3
		m.patients["3"] = p
		jsonResponse(w, http.StatusCreated, map[string]any{"patient": p})
	case strings.HasPrefix(r.URL.Path, "/patient/"):
		id := strings.TrimPrefix(r.URL.Path, "/patient/")
		p, ok := m.patients[id]
		if !ok {
			jsonResponse(w, http.StatusNotFound, map[string]any{"code": "not_found", "message": "patient not found"})
			return
		}
		switch r.Method {
		case http.MethodDelete:
			delete(m.patients, id)
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodPut, http.MethodPatch:
			for k, v := range m.bodies[r.Method+" "+r.URL.Path] {
				p[k] = v
			}
		}
		jsonResponse(w, http.StatusOK, map[string]any{"patient": p})
	case r.URL.Path == "/diagnosis/" && r.Method == http.MethodPost:
		body := m.bodies["POST /diagnosis/"]
		body["id"] = 9
		jsonResponse(w, http.StatusCreated, map[string]any{"diagnosis": body})
	case r.URL.Path == "/diagnosis/", r.URL.Path == "/diagnosis/patient/1":
		jsonResponse(w, http.StatusOK, map[string]any{"diagnoses": []map[string]any{
			{"id": 9, "patient_id": 1, "description": "seasonal flu", "suggestion": "rest", "date": "2024-03-01T10:00:00"},
		}})
	default:
		http.NotFound(w, r)
	}
}

func (m *mockAPI) body(key string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bodies[key]
}

func (m *mockAPI) query(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[path]
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// cliEnv runs the real CLI app against a mock API with an isolated state dir.
type cliEnv struct {
	api      *mockAPI
	stateDir string
	config   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{
		api:      newMockAPI(t),
		stateDir: filepath.Join(dir, "state"),
		config:   filepath.Join(dir, "missing.toml"),
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *cliEnv) runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(input)

	full := []string{"meddesk",
		"--config", e.config,
		"--api-url", e.api.URL,
		"--state-dir", e.stateDir,
		"--token-backend", "file",
		"--log-level", "error",
	}
	full = append(full, args...)
	err := app.RunContext(context.Background(), full)
	return stdout.String(), err
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	if _, err := e.run(t, "login", "-u", "alice", "-p", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
}
