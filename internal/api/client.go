package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// PatientService is the patient half of the API. *Client implements it; the
// UI and poller depend on this so tests can stub it.
type PatientService interface {
	AddPatient(ctx context.Context, in PatientInput) (Patient, error)
	ListPatients(ctx context.Context, doctorID ID) ([]Patient, error)
	GetPatient(ctx context.Context, id ID) (Patient, error)
	UpdatePatient(ctx context.Context, id ID, in PatientInput) (Patient, error)
	DeletePatient(ctx context.Context, id ID) error
	SearchPatients(ctx context.Context, doctorID ID, name string) ([]Patient, error)
	UpdatePatientStatus(ctx context.Context, id ID, status string) (Patient, error)
}

// DiagnosisService is the diagnosis half of the API.
type DiagnosisService interface {
	ListDiagnoses(ctx context.Context, query DiagnosisQuery) ([]Diagnosis, error)
	ListPatientDiagnoses(ctx context.Context, patientID ID) ([]Diagnosis, error)
	CreateDiagnosis(ctx context.Context, in DiagnosisInput) (Diagnosis, error)
}

var (
	_ PatientService   = (*Client)(nil)
	_ DiagnosisService = (*Client)(nil)
)

// Client talks to the patient-management HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	loginPath string
	infoPath  string
}

const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultLoginPath = "/users/login"
	DefaultInfoPath  = "/users/info"
	defaultUserAgent = "meddesk/0.1"
	defaultTimeout   = 10 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource attaches a bearer token from src to every request that
// does not carry one already.
func WithTokenSource(src oauth2.TokenSource) Option {
	return func(c *Client) {
		c.http.Transport = &authTransport{base: baseTransport(c.http.Transport), source: src}
	}
}

// WithCookieJar sets the jar used for cookies the API sets.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

// WithAuthPaths overrides the login and info endpoint paths.
func WithAuthPaths(login, info string) Option {
	return func(c *Client) {
		if p := strings.TrimSpace(login); p != "" {
			c.loginPath = p
		}
		if p := strings.TrimSpace(info); p != "" {
			c.infoPath = p
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if at, ok := c.http.Transport.(*authTransport); ok {
			at.base = rt
			return
		}
		c.http.Transport = rt
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		loginPath: DefaultLoginPath,
		infoPath:  DefaultInfoPath,
	}
	for _, opt := range options {
		opt(c)
	}
	if _, ok := c.http.Transport.(*authTransport); !ok {
		c.http.Transport = &authTransport{base: baseTransport(c.http.Transport)}
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Register creates a doctor account.
func (c *Client) Register(ctx context.Context, in Registration) (User, error) {
	if c == nil {
		return User{}, fmt.Errorf("client is nil")
	}
	var payload userEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: "/users/register", body: in, dest: &payload}); err != nil {
		return User{}, err
	}
	return payload.User, nil
}

// Login exchanges credentials for an access token. The username is sent as
// given; trimming is the caller's concern.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	if c == nil {
		return LoginResponse{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"username": username, "password": password}
	var payload LoginResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: c.loginPath, body: body, dest: &payload}); err != nil {
		return LoginResponse{}, err
	}
	return payload, nil
}

// Info fetches the profile behind token. A response without data yields a
// nil profile and a nil error.
func (c *Client) Info(ctx context.Context, token string) (*Profile, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload infoEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: c.infoPath, token: token, dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// AddPatient creates a patient owned by the authenticated doctor.
func (c *Client) AddPatient(ctx context.Context, in PatientInput) (Patient, error) {
	if c == nil {
		return Patient{}, fmt.Errorf("client is nil")
	}
	var payload patientEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: "/patient/", body: in, dest: &payload}); err != nil {
		return Patient{}, err
	}
	return payload.Patient, nil
}

// ListPatients returns the patients assigned to doctorID.
func (c *Client) ListPatients(ctx context.Context, doctorID ID) ([]Patient, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if doctorID == "" {
		return nil, fmt.Errorf("doctor id required")
	}
	var payload patientListEnvelope
	path := "/users/" + url.PathEscape(doctorID.String()) + "/patients"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Patients, nil
}

// GetPatient fetches one patient. A missing patient matches ErrNotFound.
func (c *Client) GetPatient(ctx context.Context, id ID) (Patient, error) {
	if c == nil {
		return Patient{}, fmt.Errorf("client is nil")
	}
	var payload patientEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: patientPath(id), dest: &payload}); err != nil {
		return Patient{}, err
	}
	return payload.Patient, nil
}

// UpdatePatient replaces a patient's fields.
func (c *Client) UpdatePatient(ctx context.Context, id ID, in PatientInput) (Patient, error) {
	if c == nil {
		return Patient{}, fmt.Errorf("client is nil")
	}
	var payload patientEnvelope
	if err := c.do(ctx, request{method: http.MethodPut, path: patientPath(id), body: in, dest: &payload}); err != nil {
		return Patient{}, err
	}
	return payload.Patient, nil
}

// DeletePatient removes a patient.
func (c *Client) DeletePatient(ctx context.Context, id ID) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, request{method: http.MethodDelete, path: patientPath(id)})
}

// SearchPatients finds doctorID's patients whose name matches name.
func (c *Client) SearchPatients(ctx context.Context, doctorID ID, name string) ([]Patient, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("doctor_id", doctorID.String())
	values.Set("name", name)
	var payload patientListEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/search", query: values, dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Patients, nil
}

// UpdatePatientStatus patches only the status field.
func (c *Client) UpdatePatientStatus(ctx context.Context, id ID, status string) (Patient, error) {
	if c == nil {
		return Patient{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"status": status}
	var payload patientEnvelope
	if err := c.do(ctx, request{method: http.MethodPatch, path: patientPath(id), body: body, dest: &payload}); err != nil {
		return Patient{}, err
	}
	return payload.Patient, nil
}

// ListDiagnoses lists diagnoses filtered by query.
func (c *Client) ListDiagnoses(ctx context.Context, query DiagnosisQuery) ([]Diagnosis, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if query.PatientID != "" {
		values.Set("patient_id", query.PatientID.String())
	}
	if kw := strings.TrimSpace(query.Keyword); kw != "" {
		values.Set("keyword", kw)
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	var payload diagnosisListEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: "/diagnosis/", query: values, dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Diagnoses, nil
}

// ListPatientDiagnoses lists the diagnoses recorded for one patient.
func (c *Client) ListPatientDiagnoses(ctx context.Context, patientID ID) ([]Diagnosis, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload diagnosisListEnvelope
	path := "/diagnosis/patient/" + url.PathEscape(patientID.String())
	if err := c.do(ctx, request{method: http.MethodGet, path: path, dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Diagnoses, nil
}

// CreateDiagnosis records a diagnosis.
func (c *Client) CreateDiagnosis(ctx context.Context, in DiagnosisInput) (Diagnosis, error) {
	if c == nil {
		return Diagnosis{}, fmt.Errorf("client is nil")
	}
	var payload diagnosisEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: "/diagnosis/", body: in, dest: &payload}); err != nil {
		return Diagnosis{}, err
	}
	return payload.Diagnosis, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	token  string
	dest   any
}

func (c *Client) do(ctx context.Context, r request) error {
	rel := &url.URL{Path: r.path}
	if len(r.query) > 0 {
		rel.RawQuery = r.query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		(&oauth2.Token{AccessToken: r.token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newError(resp, r.method, rel.String())
	}
	if r.dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func patientPath(id ID) string {
	return "/patient/" + url.PathEscape(id.String())
}

func baseTransport(rt http.RoundTripper) http.RoundTripper {
	if at, ok := rt.(*authTransport); ok {
		return at.base
	}
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}

// ParseBaseURL normalizes raw into an API root: scheme defaulted to http,
// trailing slash, query and fragment dropped. Empty means DefaultBaseURL.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
