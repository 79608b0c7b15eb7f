package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tusc/client/metrics"
	"github.com/adamwoolhether/tusc/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	bandwidth         int64
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	metrics           *metrics.Collector
	header            http.Header
	proxy             func(*http.Request) (*url.URL, error)
	chunkSize         *int64
}

// WithClient replaces the default [http.Client] used by the [Client].
// The given client is copied, never modified.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying
// [http.Client]. It bounds every single request, including each PATCH,
// so it must leave room for a full chunk at the slowest expected rate.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithBandwidth limits request body throughput to bytesPerSec.
func WithBandwidth(bytesPerSec int64) Option {
	return func(c *options) error {
		if bytesPerSec <= 0 {
			return fmt.Errorf("bytes per second[%d] %w", bytesPerSec, throttle.ErrMustNotBeZero)
		}
		c.bandwidth = bytesPerSec
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer injects the tracer used for client and upload spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithMetrics records upload and download metrics into m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *options) error {
		if m == nil {
			return errors.New("metrics collector must not be nil")
		}
		c.metrics = m
		return nil
	}
}

// WithHeaders adds headers to every request the [Client] sends.
// Protocol headers always take precedence over these.
func WithHeaders(headers http.Header) Option {
	return func(c *options) error {
		if c.header == nil {
			c.header = make(http.Header, len(headers))
		}
		for k, v := range headers {
			for _, element := range v {
				c.header.Add(k, element)
			}
		}
		return nil
	}
}

// WithProxy routes requests through the proxy chosen by fn, as in
// [http.Transport.Proxy]. The base transport must be an *http.Transport;
// it is cloned, not modified.
func WithProxy(fn func(*http.Request) (*url.URL, error)) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("proxy func must not be nil")
		}
		c.proxy = fn
		return nil
	}
}

// WithChunkSize sets the default number of bytes per PATCH for uploads.
// Uploads may still override it per call with upload.WithChunkSize.
func WithChunkSize(n int64) Option {
	return func(c *options) error {
		c.chunkSize = &n
		return nil
	}
}
