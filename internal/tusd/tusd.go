// Package tusd is an in-memory tus 1.0.0 server implementing the core
// protocol plus the creation, termination and checksum (sha1)
// extensions. It backs the client tests and the "tusc serve" command.
package tusd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tusc/internal/tusd/middleware"
	"github.com/adamwoolhether/tusc/internal/tusd/mux"
	"github.com/adamwoolhether/tusc/internal/validate"
)

// Extensions advertised in Tus-Extension.
const Extensions = "creation,termination,checksum"

// DefaultBasePath is where uploads are created and addressed.
const DefaultBasePath = "/files/"

// ErrConfiguration is matched by every error from [New] caused by
// invalid configuration.
var ErrConfiguration = errors.New("invalid server configuration")

// Config holds the server settings.
type Config struct {
	BasePath string `mapstructure:"base-path" validate:"required,startswith=/,endswith=/"`
	MaxSize  int64  `mapstructure:"max-size" validate:"gte=0"`
}

// Handler serves the tus protocol under Config.BasePath.
type Handler struct {
	app     *mux.App
	store   *Store
	cfg     Config
	logger  *slog.Logger
	metrics *metrics
}

// Option configures a [Handler].
type Option func(*options)

type options struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	store    *Store
	registry prometheus.Registerer
}

// WithLogger sets the request and error logger.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// WithTracer sets the tracer used for per-request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithStore serves uploads from store instead of a fresh one.
func WithStore(store *Store) Option {
	return func(opts *options) {
		opts.store = store
	}
}

// WithRegistry registers the server's Prometheus collectors with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(opts *options) {
		opts.registry = reg
	}
}

// New validates cfg and builds the handler.
func New(cfg Config, optFns ...Option) (*Handler, error) {
	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.store == nil {
		opts.store = NewStore()
	}

	m, err := newMetrics(opts.registry)
	if err != nil {
		return nil, err
	}

	muxOpts := []mux.Option{
		mux.WithLogger(opts.logger),
		mux.WithMiddleware(
			middleware.Logger(opts.logger),
			middleware.Errors(opts.logger),
			middleware.Resumable(),
			middleware.Panics(),
		),
	}
	if opts.tracer != nil {
		muxOpts = append(muxOpts, mux.WithTracer(opts.tracer))
	}

	h := &Handler{
		app:     mux.New(muxOpts...),
		store:   opts.store,
		cfg:     cfg,
		logger:  opts.logger,
		metrics: m,
	}
	h.routes()

	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.app.ServeHTTP(w, r)
}

// Store returns the backing store.
func (h *Handler) Store() *Store {
	return h.store
}

func (h *Handler) routes() {
	base := h.cfg.BasePath

	h.app.Options(base, h.options)
	h.app.Post(base+"{$}", h.create)
	h.app.Head(base+"{id}", h.head)
	h.app.Patch(base+"{id}", h.patch)
	h.app.Delete(base+"{id}", h.terminate)
	h.app.Get(base+"{id}", h.download)
}
