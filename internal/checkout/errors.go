package checkout

import (
	"errors"
	"fmt"
)

// ErrAllBackendsFailed is returned when every backend in the chain failed
// retryably. It is the only error the UI layer should surface to the user.
var ErrAllBackendsFailed = errors.New("all checkout backends failed")

// ErrorKind tells the orchestrator how an attempt failed. Kinds map onto the
// classification rules: network trouble, markup where JSON was expected, a
// 5xx, or a 2xx that lacked the session identifier are all worth trying the
// next backend for; a structured rejection is not.
type ErrorKind string

const (
	KindNetwork             ErrorKind = "network"
	KindMalformedResponse   ErrorKind = "malformed_response"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindMissingSessionID    ErrorKind = "missing_session_id"
	KindRejected            ErrorKind = "rejected"
	KindInvalidRequest      ErrorKind = "invalid_request"
)

type BackendError struct {
	Backend   string
	Kind      ErrorKind
	Retryable bool
	Err       error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("checkout backend %s: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func retryableError(backend string, kind ErrorKind, err error) *BackendError {
	return &BackendError{Backend: backend, Kind: kind, Retryable: true, Err: err}
}

func terminalError(backend string, kind ErrorKind, err error) *BackendError {
	return &BackendError{Backend: backend, Kind: kind, Retryable: false, Err: err}
}

// Retryable reports whether the fallback chain may proceed to the next
// backend after err. Unknown errors are treated as retryable so a misbehaving
// backend cannot wedge the chain; terminal classification is always explicit.
func Retryable(err error) bool {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Retryable
	}

	return true
}
