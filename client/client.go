package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/tusc/client/metrics"
	"github.com/adamwoolhether/tusc/client/throttle"
	"github.com/adamwoolhether/tusc/client/transport"
	"github.com/adamwoolhether/tusc/client/upload"
)

// Client talks to tus servers. It wraps a std-lib *http.Client whose
// transport chain is assembled by [Build]. A Client holds no per-upload
// state and is safe for concurrent use.
type Client struct {
	c         *http.Client
	http      *transport.HTTP
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *metrics.Collector
	header    http.Header
	chunkSize int64
}

// Build creates a Client from the given options. Without options it
// uses a fresh *http.Client over [http.DefaultTransport].
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:         &http.Client{},
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer(""),
		metrics:   opts.metrics,
		header:    opts.header,
		chunkSize: upload.DefaultChunkSize,
	}

	if opts.client != nil {
		cpy := *opts.client
		client.c = &cpy
	}
	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.chunkSize != nil {
		client.chunkSize = *opts.chunkSize
	}
	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}
	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	rt, err := buildTransport(opts, func() *slog.Logger { return client.logger })
	if err != nil {
		return nil, err
	}
	client.c.Transport = rt
	client.http = transport.New(client.c, client.logger)

	if _, err := client.engine(); err != nil {
		return nil, fmt.Errorf("configuring upload: %w", err)
	}

	return client, nil
}

// buildTransport layers the optional round trippers over the base
// transport: proxy selection, User-Agent, request throttle, bandwidth.
func buildTransport(opts options, logFn func() *slog.Logger) (http.RoundTripper, error) {
	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		rt = opts.client.Transport
	default:
		rt = http.DefaultTransport
	}

	if opts.proxy != nil {
		base, ok := rt.(*http.Transport)
		if !ok {
			return nil, errors.New("configuring proxy: base transport must be *http.Transport")
		}
		base = base.Clone()
		base.Proxy = opts.proxy
		rt = base
	}

	if opts.userAgent != "" {
		rt = userAgent{value: opts.userAgent, base: rt}
	}

	if opts.throttle != nil {
		throttled, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, logFn, rt)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		rt = throttled
	}

	if opts.bandwidth > 0 {
		paced, err := throttle.NewBandwidthRoundTripper(opts.bandwidth, logFn, rt)
		if err != nil {
			return nil, fmt.Errorf("configuring bandwidth: %w", err)
		}
		rt = paced
	}

	return rt, nil
}

// engine builds an upload engine from the client defaults followed by
// optFns, so per-call options win.
func (c *Client) engine(optFns ...upload.Option) (*upload.Engine, error) {
	defaults := []upload.Option{
		upload.WithChunkSize(c.chunkSize),
		upload.WithLogger(c.logger),
		upload.WithTracer(c.tracer),
	}
	if c.header != nil {
		defaults = append(defaults, upload.WithHeader(c.header))
	}
	if c.metrics != nil {
		defaults = append(defaults, upload.WithRecorder(c.metrics))
	}

	return upload.New(c.http, slices.Concat(defaults, optFns)...)
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
