// Package ui provides the meddesk terminal user interface.
//
// # Overview
//
// The UI is a single bubbletea Model with four screens kept on a Router
// stack:
//
//   - Login: username and password form driving session.Manager.Login
//   - Patients: the signed-in doctor's patients in a bubbles table, with
//     name search and visited/not-visited toggling
//   - Detail: one patient's record and diagnoses in a scrollable viewport
//   - Help: full key binding list
//
// The Router doubles as the session's logout collaborator: Manager.Logout
// calls Router.Reset, which drops every screen and returns to Login.
//
// # Data Flow
//
// The app poller writes the patient list into a state.Store. The model
// re-reads the store on every tick (PollTick) and after explicit refreshes.
// Everything that talks to the API runs as a tea.Cmd and reports back with
// a message; Update never blocks.
//
// On start with a stored token the model verifies it with Manager.Info. A
// rejected token (no profile or 401) resets the session and shows Login.
//
// # Theming
//
// Colors come from a Theme (Dracula or Slate) turned into lipgloss Styles.
// T cycles themes and saves the choice to the prefs file.
package ui
