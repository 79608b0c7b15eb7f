package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/adamwoolhether/tusc/internal/tusd/errs"
	"github.com/adamwoolhether/tusc/internal/tusd/mux"
)

// PanicError is a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", p.Value, p.Stack)
}

// Panics turns a handler panic into an internal error, leaving the
// response to the error middleware. http.ErrAbortHandler is re-raised
// so the server aborts the connection.
func Panics() mux.Middleware {
	return func(next mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if recErr, ok := rec.(error); ok && errors.Is(recErr, http.ErrAbortHandler) {
					panic(rec)
				}

				err = errs.NewInternal(&PanicError{Value: rec, Stack: debug.Stack()})
			}()

			return next(ctx, w, r)
		}
	}
}
