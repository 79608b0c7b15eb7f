package client

import (
	"github.com/adamwoolhether/tusc/client/download"
	"github.com/adamwoolhether/tusc/client/operation"
	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/transport"
	"github.com/adamwoolhether/tusc/client/upload"
)

// Type aliases, re-exporting the error types of the sub packages.
type (
	// TransportError is a failure of the HTTP exchange itself, including
	// cancellation.
	TransportError = transport.Error

	// ProtocolError is a response that violates the tus contract.
	ProtocolError = protocol.Error

	// ConfigError reports invalid configuration or input parameters.
	ConfigError = upload.ConfigError

	// DownloadError reports a failed integrity check of a downloaded file.
	DownloadError = download.Error
)

// Sentinel errors.
var (
	// ErrTransport matches every [TransportError].
	ErrTransport = transport.ErrTransport

	// ErrProtocol matches every [ProtocolError].
	ErrProtocol = protocol.ErrProtocol

	// ErrConfiguration matches every [ConfigError].
	ErrConfiguration = upload.ErrConfiguration

	// ErrUnexpectedStatusCode indicates the server answered with a status
	// the operation does not accept.
	ErrUnexpectedStatusCode = protocol.ErrUnexpectedStatusCode

	// ErrMissingHeader indicates a required response header was absent.
	ErrMissingHeader = protocol.ErrMissingHeader

	// ErrInvalidHeader indicates a required response header was malformed.
	ErrInvalidHeader = protocol.ErrInvalidHeader

	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the
	// server responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = protocol.ErrAuthFailure

	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch

	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled

	// ErrQueueShutdown indicates a batch refused work after shutdown.
	ErrQueueShutdown = operation.ErrQueueShutdown
)

// IsConnectionReset reports whether err stems from the peer resetting
// the connection, the one failure uploads recover from on their own.
func IsConnectionReset(err error) bool {
	return transport.IsConnectionReset(err)
}
