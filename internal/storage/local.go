package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Local persists string values to a TOML file, rewriting the whole file on
// every mutation. It plays the role a browser's localStorage plays for a web
// client: small, string-encoded, survives restarts.
type Local struct {
	mu      sync.RWMutex
	path    string
	values  map[string]string
	expires map[string]time.Time
	now     func() time.Time
}

type localFile struct {
	Values  map[string]string    `toml:"values"`
	Expires map[string]time.Time `toml:"expires,omitempty"`
}

// OpenLocal loads the file at path. A missing file is an empty store.
func OpenLocal(path string) (*Local, error) {
	l := &Local{
		path:    path,
		values:  map[string]string{},
		expires: map[string]time.Time{},
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the backing file path.
func (l *Local) Path() string {
	return l.path
}

func (l *Local) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// Get returns the value for key when present and not expired.
func (l *Local) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	value, ok := l.values[key]
	if !ok || expired(l.expires[key], l.clock()) {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value under key and rewrites the file before returning.
func (l *Local) Set(_ context.Context, key, value string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	prevValue, hadValue := l.values[key]
	prevExpiry, hadExpiry := l.expires[key]

	l.values[key] = value
	if deadline := expiresAt(l.clock(), ttl); deadline.IsZero() {
		delete(l.expires, key)
	} else {
		l.expires[key] = deadline
	}
	if err := l.save(); err != nil {
		// keep memory and disk in agreement
		if hadValue {
			l.values[key] = prevValue
		} else {
			delete(l.values, key)
		}
		if hadExpiry {
			l.expires[key] = prevExpiry
		} else {
			delete(l.expires, key)
		}
		return err
	}
	return nil
}

// Delete removes key and rewrites the file. Missing keys are a no-op.
func (l *Local) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.values[key]; !ok {
		return nil
	}
	delete(l.values, key)
	delete(l.expires, key)
	return l.save()
}

func (l *Local) load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read local store: %w", err)
	}
	var file localFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse local store: %w", err)
	}
	for k, v := range file.Values {
		l.values[k] = v
	}
	for k, v := range file.Expires {
		l.expires[k] = v
	}
	return nil
}

func (l *Local) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create local store dir: %w", err)
	}
	data, err := toml.Marshal(localFile{Values: l.values, Expires: l.expires})
	if err != nil {
		return fmt.Errorf("marshal local store: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write local store: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace local store: %w", err)
	}
	return nil
}
