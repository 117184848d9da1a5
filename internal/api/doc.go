// Package api provides an HTTP client for the patient-management backend.
//
// # Overview
//
// The backend is a small JSON API that owns doctors (users), their patients
// and the diagnoses recorded against each patient. This package wraps it in
// a typed client so the rest of meddesk never builds URLs or decodes
// envelopes by hand.
//
// # Architecture
//
//   - client.go: Client, options and one method per endpoint
//   - transport.go: round tripper that adds request ids and bearer tokens
//   - types.go: records mirroring the API schema
//   - errors.go: *Error and the ErrNotFound / ErrUnauthorized sentinels
//
// # Client Usage
//
//	tokens := auth.NewTokenStore(kv)
//	client, err := api.NewClient("http://localhost:5000",
//		api.WithTokenSource(tokens.TokenSource(ctx)),
//	)
//	if err != nil {
//		return err
//	}
//	patients, err := client.ListPatients(ctx, "7")
//
// # Endpoints
//
//   - POST /users/register, POST /users/login, GET /users/info
//   - GET /users/{doctor_id}/patients, GET /users/search
//   - POST /patient/, GET/PUT/PATCH/DELETE /patient/{id}
//   - GET /diagnosis/, GET /diagnosis/patient/{id}, POST /diagnosis/
//
// Responses arrive wrapped in a single-key envelope ({"patients": [...]},
// {"patient": {...}} and so on). The client unwraps them.
//
// # Authentication
//
// WithTokenSource installs a transport that reads the current token on every
// request. When the source reports auth.ErrNoToken the request goes out
// anonymously and the server decides. Info is the exception: it takes the
// token explicitly because it runs while a login is still being verified.
//
// # Error Handling
//
// Any status >= 400 becomes an *Error carrying the method, path, status and
// whatever code/message the body held. Use errors.Is with ErrNotFound or
// ErrUnauthorized to branch on the common cases. Network and decode failures
// are wrapped with fmt.Errorf. Requests are never retried.
package api
