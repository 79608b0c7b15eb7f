// Package middleware holds the cross-cutting handlers wrapped around
// every tus route.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/internal/tusd/mux"
)

// Logger logs each request at Debug when it arrives and at Info once
// answered, with the upload it touched.
func Logger(log *slog.Logger) mux.Middleware {
	return func(next mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := mux.FromContext(ctx)
			reqLog := log.With("trace_id", v.TraceID, "method", r.Method, "path", r.URL.Path)

			reqLog.Debug("request started", "remote_addr", r.RemoteAddr, "tus_resumable", r.Header.Get(protocol.HeaderTusResumable))

			err := next(ctx, w, r)

			attrs := []any{"status", v.StatusCode, "took", time.Since(v.Start).String()}
			if v.UploadID != "" {
				attrs = append(attrs, "upload_id", v.UploadID)
			}
			if v.Received > 0 {
				attrs = append(attrs, "received", v.Received)
			}
			reqLog.Info("request completed", attrs...)

			return err
		}
	}
}
