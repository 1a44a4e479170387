package github

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is a non-2xx, non-404 response from the contents API.
type RemoteError struct {
	// Op is the failing operation, "fetch" or "put".
	Op string

	// StatusCode is the HTTP status.
	StatusCode int

	// Body is the response body, usually a JSON error message.
	Body string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsRemoteError returns true if the error is a remote store failure.
// Uses errors.As to handle wrapped errors.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsStaleToken reports whether the error is the API refusing an update
// because the presented sha no longer matches the stored file. A concurrent
// writer got there first; the local copy has diverged from the remote.
func IsStaleToken(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.StatusCode == http.StatusConflict || re.StatusCode == http.StatusUnprocessableEntity
}
