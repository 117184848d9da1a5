// Package app provides the composition root shared by meddesk's front ends.
//
// # Overview
//
// This package turns a loaded config.Config into a wired set of
// collaborators: local storage, the token backend, the token store, the API
// client and the session manager. The CLI commands use App directly; the
// tui command additionally calls RunTUI.
//
// # Architecture
//
//   - app.go: New, Close and RunTUI
//   - poller.go: background refresh of the signed-in doctor's patients
//
// # Data Flow
//
//	┌──────────────┐
//	│   New()      │ Wire everything
//	└──────┬───────┘
//	       │
//	       ├─────> storage.OpenLocal()      doctor_id (and file-backend token)
//	       ├─────> openTokenBackend()       cookie jar | local file | redis
//	       ├─────> auth.NewTokenStore()     ttl / jwt expiry from config
//	       ├─────> api.NewClient()          bearer from the token store
//	       └─────> session.New/NewManager() seeded from persisted values
//
//	RunTUI():
//	┌─────────────────────────────────────────┐
//	│ Poller.Refresh() once, then Start()     │
//	│  ├─> doctor signed in?                  │
//	│  ├─> ListPatients(doctor_id)            │
//	│  └─> store.Update()  (atomic)           │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Token Backends
//
//   - cookie (default): <state_dir>/cookies.json, also the HTTP client's
//     cookie jar so cookies the API sets are kept
//   - file: the same local.toml that holds doctor_id
//   - redis: a shared instance, pinged at startup; closed by Close
//
// # Polling Behavior
//
// The poller runs at a fixed interval (default 15 seconds). When nobody is
// signed in it clears the store instead of calling the API. Failures are
// logged and recorded on the snapshot; there is no backoff and no retry
// beyond the next tick.
//
// # Error Handling
//
// New fails fast on an invalid API URL, unreadable local storage or an
// unreachable Redis. Errors are wrapped with the step that failed.
package app
