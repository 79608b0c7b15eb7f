package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/tusc/internal/tusd/errs"
	"github.com/adamwoolhether/tusc/internal/tusd/mux"
)

// Errors renders errors coming out of the call chain as plain-text
// responses carrying the error's status. HEAD responses carry no body.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			var appErr *errs.Error
			if !errors.As(err, &appErr) {
				appErr = errs.NewInternal(err)
			}

			reqLog := log.With("trace_id", mux.TraceID(ctx))
			if appErr.Code >= http.StatusInternalServerError {
				reqLog.Error(err.Error(), "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))
			} else {
				reqLog.Warn(err.Error(), "status", appErr.Code, "source_err_func", path.Base(appErr.FuncName))
			}

			if r.Method == http.MethodHead {
				return mux.Respond(ctx, w, appErr.Code)
			}

			msg := appErr.Message
			if appErr.InnerErr {
				msg = http.StatusText(appErr.Code)
			}

			return mux.RespondText(ctx, w, appErr.Code, msg)
		}

		return h
	}

	return m
}
