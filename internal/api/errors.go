package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNotFound matches any *Error with status 404.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is returned for 4xx and 5xx responses.
type Error struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is lets callers match on ErrNotFound / ErrUnauthorized.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// newError builds an *Error from a failed response, reading whatever
// {code, message, error} fields the body carries.
func newError(resp *http.Response, method, path string) *Error {
	e := &Error{Method: method, Path: path, Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return e
	}
	var payload struct {
		Code    string `json:"code"`
		Message any    `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		// HTML error pages and the like carry nothing useful
		return e
	}
	e.Code = payload.Code
	e.Message = firstText(payload.Message, payload.Error)
	return e
}

func firstText(values ...any) string {
	for _, v := range values {
		switch t := v.(type) {
		case nil:
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		default:
			if data, err := json.Marshal(t); err == nil {
				return string(data)
			}
		}
	}
	return ""
}
