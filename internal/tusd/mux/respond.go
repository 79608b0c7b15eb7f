package mux

import (
	"context"
	"net/http"
)

// Respond writes statusCode with no body and records it for logging.
func Respond(ctx context.Context, w http.ResponseWriter, statusCode int) error {
	SetStatusCode(ctx, statusCode)
	w.WriteHeader(statusCode)

	return nil
}

// RespondText writes statusCode with msg as a plain-text body.
func RespondText(ctx context.Context, w http.ResponseWriter, statusCode int, msg string) error {
	SetStatusCode(ctx, statusCode)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)

	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}

	return nil
}
