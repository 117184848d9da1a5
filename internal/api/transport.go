package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/meddesk/meddesk/internal/auth"
)

const requestIDHeader = "X-Request-ID"

// authTransport stamps each outgoing request with a request id and, when the
// source has a token and the caller did not set one, a bearer header.
type authTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if clone.Header.Get(requestIDHeader) == "" {
		clone.Header.Set(requestIDHeader, uuid.NewString())
	}
	if t.source != nil && clone.Header.Get("Authorization") == "" {
		tok, err := t.source.Token()
		switch {
		case err == nil && tok.AccessToken != "":
			tok.SetAuthHeader(clone)
		case err == nil, errors.Is(err, auth.ErrNoToken):
			// anonymous request
		default:
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, err
		}
	}
	return t.base.RoundTrip(clone)
}
