package mux

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type ctxKey struct{}

// Values are the per-request facts shared by the mux, the middleware
// and the tus handlers. Handlers fill in the upload fields.
type Values struct {
	TraceID    string
	Start      time.Time
	Tracer     trace.Tracer
	StatusCode int

	UploadID string
	Received int64
}

// FromContext returns the request's Values. Outside a mux request it
// returns a detached zero trace.
func FromContext(ctx context.Context) *Values {
	if v, ok := ctx.Value(ctxKey{}).(*Values); ok {
		return v
	}

	return &Values{
		TraceID: uuid.Nil.String(),
		Start:   time.Now(),
		Tracer:  noop.NewTracerProvider().Tracer(""),
	}
}

// TraceID is shorthand for FromContext(ctx).TraceID.
func TraceID(ctx context.Context) string {
	return FromContext(ctx).TraceID
}

// SetStatusCode records the response status for logging.
func SetStatusCode(ctx context.Context, statusCode int) {
	FromContext(ctx).StatusCode = statusCode
}

// SetUpload records the upload a request acted on and the body bytes
// it stored.
func SetUpload(ctx context.Context, id string, received int64) {
	v := FromContext(ctx)
	v.UploadID = id
	v.Received = received
}

func withValues(ctx context.Context, v *Values) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}
