package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meddesk/meddesk/internal/storage"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Set(context.Context, string, string, time.Duration) error {
	return f.err
}
func (f failingKV) Delete(context.Context, string) error { return f.err }

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestTokenStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewTokenStore(storage.NewMemory())

	if _, ok := s.Token(ctx); ok {
		t.Fatalf("Token on empty store reported present")
	}
	if err := s.SetToken(ctx, "T1"); err != nil {
		t.Fatalf("SetToken returned error: %v", err)
	}
	got, ok := s.Token(ctx)
	if !ok || got != "T1" {
		t.Fatalf("Token = %q/%v, want T1/true", got, ok)
	}
	if err := s.RemoveToken(ctx); err != nil {
		t.Fatalf("RemoveToken returned error: %v", err)
	}
	if _, ok := s.Token(ctx); ok {
		t.Fatalf("Token after RemoveToken reported present")
	}
	if err := s.RemoveToken(ctx); err != nil {
		t.Fatalf("second RemoveToken returned error: %v", err)
	}
}

func TestTokenStore_ReadErrorIsAbsent(t *testing.T) {
	s := NewTokenStore(failingKV{err: errors.New("disk gone")})
	if _, ok := s.Token(context.Background()); ok {
		t.Fatalf("Token reported present on backend failure")
	}
}

func TestTokenStore_WriteErrorsSurface(t *testing.T) {
	backendErr := errors.New("disk full")
	s := NewTokenStore(failingKV{err: backendErr})

	if err := s.SetToken(context.Background(), "T1"); !errors.Is(err, backendErr) {
		t.Fatalf("SetToken error = %v, want wrapping %v", err, backendErr)
	}
	if err := s.RemoveToken(context.Background()); !errors.Is(err, backendErr) {
		t.Fatalf("RemoveToken error = %v, want wrapping %v", err, backendErr)
	}
}

func TestTokenStore_JWTExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	enforcing := NewTokenStore(storage.NewMemory(), WithJWTExpiry(true))
	enforcing.now = func() time.Time { return now }

	if err := enforcing.SetToken(ctx, signed(t, now.Add(-time.Minute))); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, ok := enforcing.Token(ctx); ok {
		t.Fatalf("expired JWT reported present")
	}

	fresh := signed(t, now.Add(time.Hour))
	if err := enforcing.SetToken(ctx, fresh); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got, ok := enforcing.Token(ctx); !ok || got != fresh {
		t.Fatalf("fresh JWT = %v, want present", ok)
	}

	if err := enforcing.SetToken(ctx, "opaque-token"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, ok := enforcing.Token(ctx); !ok {
		t.Fatalf("opaque token should not be subject to JWT expiry")
	}

	lenient := NewTokenStore(storage.NewMemory())
	_ = lenient.SetToken(ctx, signed(t, now.Add(-time.Minute)))
	if _, ok := lenient.Token(ctx); !ok {
		t.Fatalf("expired JWT should be kept when expiry checks are off")
	}
}

func TestTokenStore_TTLPassedToBackend(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := NewTokenStore(mem, WithTTL(time.Nanosecond))
	if err := s.SetToken(ctx, "T1"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, ok := s.Token(ctx); ok {
		t.Fatalf("token should have expired after its ttl")
	}
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	s := NewTokenStore(storage.NewMemory())
	src := s.TokenSource(ctx)

	if _, err := src.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token error = %v, want ErrNoToken", err)
	}
	_ = s.SetToken(ctx, "T1")
	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if tok.AccessToken != "T1" || tok.Type() != "Bearer" {
		t.Fatalf("token = %+v, want bearer T1", tok)
	}
}
