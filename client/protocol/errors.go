package protocol

import (
	"errors"
	"fmt"
	"net/http"
)

// MaxErrBodySize caps the amount of response body kept on an [Error].
// Large bodies arriving with a wrong status are truncated.
const MaxErrBodySize = 4 << 10 // 4KB

var (
	// ErrProtocol is matched by every [Error], whatever its cause.
	ErrProtocol = errors.New("tus protocol error")

	// ErrUnexpectedStatusCode indicates the server answered with a status
	// the operation does not accept.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")

	// ErrMissingHeader indicates a required response header was absent.
	ErrMissingHeader = errors.New("missing header")

	// ErrInvalidHeader indicates a required response header could not be parsed.
	ErrInvalidHeader = errors.New("invalid header")

	// ErrAuthFailure is additionally matched by an [Error] whose status
	// is 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// Error reports a server response that violates the tus contract of
// the operation named by Op.
type Error struct {
	Op         string
	StatusCode int
	Header     string
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Header != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Header)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: %d", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s, body: %s", msg, e.Body)
	}

	return msg
}

// Unwrap exposes both [ErrProtocol] and the specific cause.
func (e *Error) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return []error{ErrProtocol, ErrAuthFailure, e.Err}
	}

	return []error{ErrProtocol, e.Err}
}

// UnexpectedStatus builds an [Error] for resp carrying a status that op
// does not accept. The body snippet is capped at [MaxErrBodySize].
func UnexpectedStatus(op string, resp *Response) *Error {
	return &Error{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       snippet(resp.Body),
		Err:        ErrUnexpectedStatusCode,
	}
}

func snippet(b []byte) string {
	if len(b) > MaxErrBodySize {
		b = b[:MaxErrBodySize]
	}

	return string(b)
}
