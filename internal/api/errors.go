// Package api provides the chat backend API client and its error types.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError indicates that a usable access token could not be obtained.
// The caller must re-authenticate; retrying without a new credential is
// pointless, so the client never retries these.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// StatusError indicates a non-success HTTP response from the backend.
// The body is kept (truncated) for diagnostics.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, truncateBody(e.Body))
}

const maxBodyInError = 200

func truncateBody(body string) string {
	if len(body) <= maxBodyInError {
		return body
	}
	return body[:maxBodyInError] + "..."
}

// IsAuthError reports whether err is a credential failure, either locally
// (no token) or rejected by the backend (401/403).
func IsAuthError(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 from the backend, typically a
// conversation that was deleted elsewhere while still listed locally.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}
