package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/storage"
)

// DefaultAvatar is shown for every signed-in doctor; the API has no avatars.
const DefaultAvatar = "https://ts1.cn.mm.bing.net/th/id/R-C.b3201c2151a76f084a29f648ce604579?rik=RvrqbIDiwdTwIw&riu=http%3a%2f%2fimg.yipic.cn%2fthumb%2f63722c77%2f4e8ef61d%2fb6faf940%2f3c7b7441%2fbig_63722c774e8ef61db6faf9403c7b7441.jpg%3fx-oss-process%3dimage%2fformat%2cwebp%2fsharpen%2c100&ehk=7bn3F38ju2bkqvz%2b7mtg9xnvHDxIqgGXPxWOEOI5q4o%3d&risl=&pid=ImgRaw&r=0"

// DoctorIDKey is the local storage slot mirroring the doctor id.
const DoctorIDKey = "doctor_id"

// TokenStore is the subset of *auth.TokenStore the session needs.
type TokenStore interface {
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context) error
}

// Snapshot is a copy of the session taken under one read lock.
type Snapshot struct {
	Token    string
	Name     string
	Avatar   string
	DoctorID api.ID
}

// Authenticated reports whether the snapshot carries a token.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// State is the in-memory session. Fields change only through the Set*
// methods and Reset.
type State struct {
	mu     sync.RWMutex
	data   Snapshot
	tokens TokenStore
	local  storage.KV
	logger *slog.Logger
}

// StateOption configures a State.
type StateOption func(*State)

// WithStateLogger sets the logger for storage failures.
func WithStateLogger(logger *slog.Logger) StateOption {
	return func(s *State) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a State seeded from the persisted token and doctor id.
func New(ctx context.Context, tokens TokenStore, local storage.KV, options ...StateOption) *State {
	s := &State{tokens: tokens, local: local, logger: slog.Default()}
	for _, opt := range options {
		opt(s)
	}
	// A failed doctor id read is logged by defaults and leaves the id empty.
	s.data, _ = s.defaults(ctx)
	return s
}

// Snapshot returns a copy of every field.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Token returns the in-memory token, if any.
func (s *State) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token, s.data.Token != ""
}

// Name returns the display name.
func (s *State) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Name
}

// Avatar returns the avatar URL. It is never empty.
func (s *State) Avatar() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Avatar
}

// DoctorID returns the acting doctor's id, if any.
func (s *State) DoctorID() (api.ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.DoctorID, s.data.DoctorID != ""
}

// SetToken replaces the in-memory token only. Persisting it is the token
// store's job.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	s.data.Token = token
	s.mu.Unlock()
}

// SetName replaces the display name.
func (s *State) SetName(name string) {
	s.mu.Lock()
	s.data.Name = name
	s.mu.Unlock()
}

// SetAvatar stores url, or DefaultAvatar when url is empty.
func (s *State) SetAvatar(url string) {
	if url == "" {
		url = DefaultAvatar
	}
	s.mu.Lock()
	s.data.Avatar = url
	s.mu.Unlock()
}

// SetDoctorID updates the doctor id and writes it to local storage before
// returning. The in-memory value changes even when the write fails.
func (s *State) SetDoctorID(ctx context.Context, id api.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DoctorID = id
	if err := s.local.Set(ctx, DoctorIDKey, id.String(), 0); err != nil {
		s.logger.Error("persist doctor id failed", "doctor_id", id.String(), "error", err)
		return fmt.Errorf("persist doctor id: %w", err)
	}
	return nil
}

// Reset replaces every field with fresh defaults in one swap. A failed
// doctor id read leaves the id empty and is returned.
func (s *State) Reset(ctx context.Context) error {
	fresh, err := s.defaults(ctx)
	s.mu.Lock()
	s.data = fresh
	s.mu.Unlock()
	return err
}

func (s *State) defaults(ctx context.Context) (Snapshot, error) {
	fresh := Snapshot{Avatar: DefaultAvatar}
	if token, ok := s.tokens.Token(ctx); ok {
		fresh.Token = token
	}
	id, ok, err := s.local.Get(ctx, DoctorIDKey)
	if err != nil {
		s.logger.Warn("read doctor id failed", "error", err)
		return fresh, fmt.Errorf("read doctor id: %w", err)
	}
	if ok {
		fresh.DoctorID = api.ID(id)
	}
	return fresh, nil
}
