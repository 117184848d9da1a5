// Package session holds the signed-in doctor's session and the flows that
// change it.
//
// State is built once per process with New and handed to whoever needs it.
// It keeps the token, display name, avatar URL and doctor id behind a lock
// and exposes them only through named mutations. The doctor id is written
// through to local storage on every change; the token is persisted by the
// Manager.
//
// Manager drives login, profile verification, logout and token reset:
//
//	state := session.New(ctx, tokens, local)
//	mgr := session.NewManager(state, tokens, client, session.WithRouter(ui))
//	if err := mgr.Login(ctx, session.Credentials{Username: "alice", Password: pw}); err != nil {
//		return err
//	}
//	if _, err := mgr.Info(ctx); errors.Is(err, session.ErrVerificationFailed) {
//		_ = mgr.ResetToken(ctx)
//	}
//
// There is no stored status; Manager.Status infers Anonymous, Authenticating
// or Authenticated from the in-flight login and the presence of a token.
package session
