package transport

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrTransport is matched by every [Error]: connection, DNS and TLS
// failures as well as cancellation of the request context.
var ErrTransport = errors.New("transport fault")

// Error wraps a failure of the underlying HTTP exchange. StatusCode is
// set when the failure happened after response headers arrived.
type Error struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s %s: status %d: %v", e.Op, e.Method, e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

// Unwrap exposes both [ErrTransport] and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// IsConnectionReset reports whether err is a network-level reset by
// the peer. A broken pipe while writing the request body is the same
// event observed from the sending side.
func IsConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
