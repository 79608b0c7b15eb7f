package middleware

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/internal/tusd/errs"
	"github.com/adamwoolhether/tusc/internal/tusd/mux"
)

// Resumable stamps Tus-Resumable on every response and rejects requests
// announcing a different protocol version with 412. OPTIONS and GET
// requests are exempt from the check.
func Resumable() mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set(protocol.HeaderTusResumable, protocol.Version)

			if r.Method == http.MethodOptions || r.Method == http.MethodGet {
				return handler(ctx, w, r)
			}

			if v := r.Header.Get(protocol.HeaderTusResumable); v != protocol.Version {
				w.Header().Set(protocol.HeaderTusVersion, protocol.Version)
				return errs.Newf(http.StatusPreconditionFailed, "unsupported tus version %q", v)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
