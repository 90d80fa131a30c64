package httpapi

import "net/http"

// Authenticator resolves the session-bound user id for an inbound request.
// Session handling is an external collaborator: this package only consumes
// its verdict. Absence of a user id is always treated as HTTP 401 before
// any further processing, including before an SSE stream is opened.
type Authenticator interface {
	CurrentUserID(r *http.Request) (userID string, ok bool)
}

// HeaderAuthenticator is a minimal stand-in for a real session/identity
// provider: it trusts an upstream-set header verbatim. It exists so this
// package is runnable end to end without a real auth system wired in;
// production deployments are expected to supply their own Authenticator
// backed by session cookies or a bearer token verifier.
type HeaderAuthenticator struct {
	// HeaderName is the header carrying the user id. Defaults to
	// "X-User-Id" when empty.
	HeaderName string
}

var _ Authenticator = HeaderAuthenticator{}

func (a HeaderAuthenticator) CurrentUserID(r *http.Request) (string, bool) {
	name := a.HeaderName
	if name == "" {
		name = "X-User-Id"
	}
	userID := r.Header.Get(name)
	if userID == "" {
		return "", false
	}
	return userID, true
}
