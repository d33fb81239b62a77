package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation error")
	// ErrAuth marks 401/403 responses; the session must be torn down.
	ErrAuth = errors.New("authentication error")
	// ErrTransient marks retryable failures: network errors, timeouts, 5xx,
	// and malformed response bodies. The session is preserved.
	ErrTransient = errors.New("transient failure")
	// ErrExpiredSession marks authenticated calls short-circuited locally
	// because the stored token is past its expiry buffer.
	ErrExpiredSession = errors.New("session expired")
)

// classifyStatus maps an HTTP status to the error taxonomy. A nil return
// means the status is a success.
func classifyStatus(operation string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrAuth, operation, status)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: %s returned %d", ErrTransient, operation, status)
	default:
		return fmt.Errorf("%s returned %d", operation, status)
	}
}

// transportError wraps a failed round trip or an undecodable body; both are
// retryable from the caller's point of view.
func transportError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransient, operation, err)
}
