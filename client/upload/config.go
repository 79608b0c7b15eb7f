package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tusc/internal/validate"
)

// DefaultChunkSize is the number of bytes sent per PATCH unless
// overridden with [WithChunkSize].
const DefaultChunkSize = 5 << 20 // 5MiB

// ErrConfiguration is matched by every [ConfigError].
var ErrConfiguration = errors.New("invalid configuration")

// ConfigError reports invalid engine configuration or malformed input
// parameters.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
}

// Unwrap exposes both [ErrConfiguration] and the underlying cause.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// Fields returns the failing configuration fields, if the error came
// from struct validation.
func (e *ConfigError) Fields() map[string]string {
	var fe validate.FieldErrors
	if !errors.As(e.Err, &fe) {
		return nil
	}
	return fe.Fields()
}

// Config holds the validated engine settings.
type Config struct {
	ChunkSize int64 `mapstructure:"chunk-size" validate:"gte=1"`
}

// Recorder receives upload metrics. [*metrics.Collector] satisfies it.
//
// [*metrics.Collector]: github.com/adamwoolhether/tusc/client/metrics
type Recorder interface {
	ChunkSent(n int)
	Resynced()
	UploadFinished(result string, took time.Duration)
}

// Option is a functional option for configuring an [Engine] via [New].
type Option func(*options) error

type options struct {
	config   Config
	header   http.Header
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// WithChunkSize sets the maximum number of bytes sent per PATCH.
// Sizes below one byte are rejected by [New].
func WithChunkSize(n int64) Option {
	return func(opts *options) error {
		opts.config.ChunkSize = n
		return nil
	}
}

// WithHeader adds headers to every request of the upload. Protocol
// headers always take precedence.
func WithHeader(h http.Header) Option {
	return func(opts *options) error {
		if opts.header == nil {
			opts.header = make(http.Header, len(h))
		}
		for k, v := range h {
			for _, element := range v {
				opts.header.Add(k, element)
			}
		}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Engine].
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		opts.logger = logger
		return nil
	}
}

// WithTracer injects the tracer used for upload and chunk spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		opts.tracer = tracer
		return nil
	}
}

// WithRecorder injects a metrics [Recorder].
func WithRecorder(r Recorder) Option {
	return func(opts *options) error {
		opts.recorder = r
		return nil
	}
}
