package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CookieJar keeps cookies for a single API origin and persists them to a
// JSON file on every change. Slots written through the KV methods are sent
// with requests like cookies, but they live apart from the cookies the
// server sets: a Set-Cookie never overwrites or deletes a slot, and a slot
// shadows a server cookie of the same name.
type CookieJar struct {
	mu      sync.RWMutex
	path    string
	host    string
	slots   map[string]persistedCookie
	cookies map[string]persistedCookie
	now     func() time.Time
}

type persistedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	HttpOnly bool      `json:"httpOnly"`
	Slot     bool      `json:"slot,omitempty"`
}

type cookieSnapshot struct {
	Host    string            `json:"host"`
	Cookies []persistedCookie `json:"cookies"`
}

var _ http.CookieJar = (*CookieJar)(nil)

// OpenCookieJar loads the jar at path, scoped to the host of origin.
// Cookies saved for a different host are dropped.
func OpenCookieJar(path, origin string) (*CookieJar, error) {
	u, err := neturl.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse cookie origin %q: %w", origin, err)
	}
	host := hostOnly(u.Host)
	if host == "" {
		return nil, fmt.Errorf("cookie origin %q has no host", origin)
	}
	j := &CookieJar{
		path:    path,
		host:    host,
		slots:   map[string]persistedCookie{},
		cookies: map[string]persistedCookie{},
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *CookieJar) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

// Get returns the value of the named slot when present and not expired.
func (j *CookieJar) Get(_ context.Context, name string) (string, bool, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	c, ok := j.slots[name]
	if !ok || expired(c.Expires, j.clock()) {
		return "", false, nil
	}
	return c.Value, true, nil
}

// Set writes the named slot. A positive ttl sets its Expires. When the file
// cannot be written the previous value is kept.
func (j *CookieJar) Set(_ context.Context, name, value string, ttl time.Duration) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, had := j.slots[name]
	j.slots[name] = persistedCookie{
		Name:    name,
		Value:   value,
		Path:    "/",
		Expires: expiresAt(j.clock(), ttl),
		Slot:    true,
	}
	if err := j.save(); err != nil {
		j.restoreSlot(name, prev, had)
		return err
	}
	return nil
}

// Delete removes the named slot. Missing slots are a no-op. When the file
// cannot be written the slot is kept.
func (j *CookieJar) Delete(_ context.Context, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, ok := j.slots[name]
	if !ok {
		return nil
	}
	delete(j.slots, name)
	if err := j.save(); err != nil {
		j.restoreSlot(name, prev, true)
		return err
	}
	return nil
}

func (j *CookieJar) restoreSlot(name string, prev persistedCookie, had bool) {
	if had {
		j.slots[name] = prev
		return
	}
	delete(j.slots, name)
}

// Cookies implements http.CookieJar.
func (j *CookieJar) Cookies(u *neturl.URL) []*http.Cookie {
	if u == nil || hostOnly(u.Host) != j.host {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	now := j.clock()
	reqPath := pathOrRoot(u.Path)
	var out []*http.Cookie
	add := func(c persistedCookie) {
		if expired(c.Expires, now) {
			return
		}
		if c.Secure && u.Scheme != "https" {
			return
		}
		if !strings.HasPrefix(reqPath, c.Path) {
			return
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	for _, c := range j.slots {
		add(c)
	}
	for name, c := range j.cookies {
		if _, shadowed := j.slots[name]; shadowed {
			continue
		}
		add(c)
	}
	return out
}

// SetCookies implements http.CookieJar. Persistence failures are dropped
// because the interface has no error return; the in-memory jar still updates.
func (j *CookieJar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	if u == nil || hostOnly(u.Host) != j.host || len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.clock()
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || expired(expires, now) {
			delete(j.cookies, c.Name)
			continue
		}
		j.cookies[c.Name] = persistedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     pathOrRoot(c.Path),
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	_ = j.save()
}

func (j *CookieJar) load() error {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cookie jar: %w", err)
	}
	var snap cookieSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse cookie jar: %w", err)
	}
	if snap.Host != j.host {
		return nil
	}
	now := j.clock()
	for _, c := range snap.Cookies {
		if expired(c.Expires, now) {
			continue
		}
		if c.Slot {
			j.slots[c.Name] = c
			continue
		}
		j.cookies[c.Name] = c
	}
	return nil
}

func (j *CookieJar) save() error {
	snap := cookieSnapshot{Host: j.host}
	now := j.clock()
	for _, set := range []map[string]persistedCookie{j.slots, j.cookies} {
		for _, c := range set {
			if expired(c.Expires, now) {
				continue
			}
			snap.Cookies = append(snap.Cookies, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookie jar: %w", err)
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cookie jar: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("replace cookie jar: %w", err)
	}
	return nil
}

func hostOnly(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(h)
	}
	return strings.ToLower(hostport)
}

func pathOrRoot(p string) string {
	if strings.TrimSpace(p) == "" {
		return "/"
	}
	return p
}
