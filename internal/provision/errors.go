package provision

import (
	"errors"
	"fmt"
)

// Kind categorizes a ConfigurationError.
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindRemoteNotFound    Kind = "remote_not_found"
	KindRemoteRejected    Kind = "remote_rejected"
	KindHostUnresolvable  Kind = "host_unresolvable"
	KindRetriesExhausted  Kind = "retries_exhausted"
	KindDeclined          Kind = "declined"
)

// ErrNotFound is returned by a Provider when the requested resource does not exist.
var ErrNotFound = errors.New("resource not found")

// ConfigurationError is the single error type surfaced by the provisioning workflow.
// Every kind is fatal to the run.
type ConfigurationError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// remoteError classifies a provider failure.
func remoteError(err error, format string, args ...any) *ConfigurationError {
	if errors.Is(err, ErrNotFound) {
		return newError(KindRemoteNotFound, err, format, args...)
	}
	return newError(KindRemoteRejected, err, format, args...)
}

// IsKind reports whether err carries a ConfigurationError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce) && ce.Kind == kind
}
