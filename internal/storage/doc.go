// Package storage provides the key-value backends that hold meddesk's
// persisted session slots.
//
// # Overview
//
// The session layer keeps exactly two durable values: the authentication
// token and the acting doctor's id. Both are plain strings stored under
// fixed keys in a KV backend. This package supplies the backends; it knows
// nothing about tokens or doctors.
//
// # Backends
//
//   - CookieJar: cookie-style slots for a single API origin, persisted as
//     JSON. Supports expiry and also serves as the HTTP client's cookie jar.
//     This is the default home of the token.
//   - Local: a TOML file of string values, rewritten atomically (tmp file +
//     rename) on every mutation. This is the home of the doctor id.
//   - Redis: values in a shared Redis instance with native TTLs, for
//     workstations that should share one login.
//   - Memory: in-process only; used by tests and throwaway sessions.
//
// # Semantics
//
// All backends agree on:
//
//   - Get on a missing or expired key returns ok=false and a nil error
//   - Set overwrites unconditionally; ttl <= 0 means no expiry
//   - Delete on a missing key succeeds
//   - file-backed writes are durable when Set/Delete return nil
//
// # Error Handling
//
// Read and write failures are returned wrapped with the operation that
// failed (for example "write local store: ..."). Callers decide whether a
// failure is fatal; the session layer logs and surfaces write failures.
package storage
