// Package state provides thread-safe state management for the meddesk TUI.
//
// # Overview
//
// This package holds the signed-in doctor's patient list as last fetched by
// the background poller. The poller writes, the UI reads.
//
//	Producer (Poller):               Consumer (UI):
//	┌──────────────────┐            ┌──────────────────┐
//	│ ListPatients()   │            │                  │
//	│      ↓           │            │                  │
//	│ store.Update()   │───────────→│ store.Snapshot() │
//	│      ↓           │  (mutex)   │      ↓           │
//	│  repeat...       │            │  render table    │
//	└──────────────────┘            └──────────────────┘
//
// # Core Types
//
// Store:
//   - Thread-safe container for the latest patient list
//   - Uses sync.RWMutex; single writer, multiple readers
//   - Clear empties it on logout
//
// Snapshot:
//   - Copy of the state at a point in time
//   - Patients, owning doctor, timestamps and error info
//
// # Error Handling
//
// A failed poll keeps the previous patients and records the error, the time
// and a consecutive failure count. IsOffline reports true after two failures
// in a row; the next success resets the count.
//
// This package holds only what the server last said. The session itself
// (token, doctor id) lives in package session.
package state
