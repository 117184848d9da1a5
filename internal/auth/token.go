// Package auth persists the bearer token that authenticates API requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/meddesk/meddesk/internal/storage"
)

// TokenKey is the fixed slot the token lives under.
const TokenKey = "token"

// TokenStore reads and writes the single authentication token.
type TokenStore struct {
	kv        storage.KV
	ttl       time.Duration
	jwtExpiry bool
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a TokenStore.
type Option func(*TokenStore)

// WithTTL sets how long a stored token lives. Zero keeps it until removed.
func WithTTL(ttl time.Duration) Option {
	return func(s *TokenStore) {
		s.ttl = ttl
	}
}

// WithJWTExpiry makes Token treat a JWT whose exp claim has passed as absent.
// The signature is not checked; the server remains the authority.
func WithJWTExpiry(enabled bool) Option {
	return func(s *TokenStore) {
		s.jwtExpiry = enabled
	}
}

// WithLogger sets the logger used for swallowed read errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TokenStore) {
		s.logger = logger
	}
}

// NewTokenStore builds a TokenStore over kv.
func NewTokenStore(kv storage.KV, options ...Option) *TokenStore {
	s := &TokenStore{kv: kv, now: time.Now, logger: slog.Default()}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Token returns the stored token. It never fails: a miss, an expired token or
// a backend error all report absent, the latter being logged.
func (s *TokenStore) Token(ctx context.Context) (string, bool) {
	value, ok, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Warn("token read failed", "error", err)
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	if s.jwtExpiry && jwtExpired(value, s.now()) {
		s.logger.Debug("stored token expired")
		return "", false
	}
	return value, true
}

// SetToken overwrites the stored token.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, TokenKey, token, s.ttl); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// RemoveToken deletes the stored token. Removing a missing token succeeds.
func (s *TokenStore) RemoveToken(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// TokenSource adapts the store to oauth2.TokenSource so each request carries
// whatever token is stored at the time it is sent.
func (s *TokenStore) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeSource{ctx: ctx, store: s}
}

// ErrNoToken is returned by the token source when nothing is stored.
var ErrNoToken = errors.New("no stored token")

type storeSource struct {
	ctx   context.Context
	store *TokenStore
}

func (t *storeSource) Token() (*oauth2.Token, error) {
	value, ok := t.store.Token(t.ctx)
	if !ok {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}

// jwtExpired reports whether token is a JWT carrying an exp claim at or
// before now. Opaque tokens and tokens without exp never expire here.
func jwtExpired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
