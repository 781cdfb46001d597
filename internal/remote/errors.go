package remote

import (
	"errors"
	"fmt"
)

// ErrSessionExpired indicates the server rejected the auth token (HTTP 401).
// The user has to sign in again; retrying will not help.
var ErrSessionExpired = errors.New("session expired, please sign in again")

// StatusError is any other non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}
