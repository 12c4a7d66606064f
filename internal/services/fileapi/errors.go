package fileapi

import (
	"errors"
	"fmt"
)

// ErrLocalFileMissing is returned when an upload source does not exist or is not a regular file.
var ErrLocalFileMissing = errors.New("local file missing")

// TransportError is a failure that produced no HTTP status code.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: transport error", e.Method, e.URL)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the server answered with a status other than the expected one.
type StatusError struct {
	Endpoint string
	Expected int
	Actual   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: expected status %d, got %d", e.Endpoint, e.Expected, e.Actual)
}

// IsTransportError reports whether err or any wrapped error is a TransportError.
func IsTransportError(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// StatusCode returns the unexpected status carried by err, or 0.
func StatusCode(err error) int {
	var s *StatusError
	if errors.As(err, &s) {
		return s.Actual
	}
	return 0
}
