// Package transport executes tus request descriptors over net/http,
// streaming bodies in both directions and reporting progress as bytes move.
package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/adamwoolhether/tusc/client/protocol"
)

// Doer executes one request/response cycle.
type Doer interface {
	Do(ctx context.Context, req *protocol.Request, opts ...DoOption) (*protocol.Response, error)
}

// HTTP is the net/http backed [Doer].
type HTTP struct {
	c      *http.Client
	logger *slog.Logger
}

// New wraps hc. A nil hc falls back to [http.DefaultClient] and a nil
// logger to [slog.Default].
func New(hc *http.Client, logger *slog.Logger) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTP{c: hc, logger: logger}
}

// DoOption is a functional option for [Doer.Do].
type DoOption func(*DoOptions)

// DoOptions is the resolved set of [DoOption] values.
type DoOptions struct {
	UploadProgress   ProgressFunc
	DownloadProgress ProgressFunc
}

// ResolveOptions applies optFns in order. Doer implementations other
// than [HTTP] use it to honour progress callbacks.
func ResolveOptions(optFns ...DoOption) DoOptions {
	var opts DoOptions
	for _, opt := range optFns {
		opt(&opts)
	}

	return opts
}

// WithUploadProgress reports request body bytes as they are written.
// The first report is (0, len(body)).
func WithUploadProgress(fn ProgressFunc) DoOption {
	return func(opts *DoOptions) {
		opts.UploadProgress = fn
	}
}

// WithDownloadProgress reports response body bytes as they are read.
// The first report is (0, Content-Length), with an unknown length as zero.
func WithDownloadProgress(fn ProgressFunc) DoOption {
	return func(opts *DoOptions) {
		opts.DownloadProgress = fn
	}
}

// Do sends req and buffers the whole response. Responses of any status
// are returned without error; only failures of the exchange itself
// produce an [*Error].
func (t *HTTP) Do(ctx context.Context, req *protocol.Request, optFns ...DoOption) (*protocol.Response, error) {
	opts := ResolveOptions(optFns...)

	var out *protocol.Response
	err := t.exchange(ctx, req, opts, func(resp *http.Response) error {
		down := &progressReader{
			ctx:   ctx,
			r:     resp.Body,
			fn:    opts.DownloadProgress,
			total: max(resp.ContentLength, 0),
		}
		down.start()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, down); err != nil {
			return &Error{Op: "read body", Method: req.Method, URL: req.URL, StatusCode: resp.StatusCode, Err: err}
		}

		out = &protocol.Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       buf.Bytes(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Stream sends req and hands the live response to fn, which owns
// reading the body. The body is drained and closed after fn returns.
// Errors returned by fn are passed through unchanged.
func (t *HTTP) Stream(ctx context.Context, req *protocol.Request, fn func(*http.Response) error, optFns ...DoOption) error {
	return t.exchange(ctx, req, ResolveOptions(optFns...), fn)
}

func (t *HTTP) exchange(ctx context.Context, req *protocol.Request, opts DoOptions, fn func(*http.Response) error) error {
	var body io.Reader
	var up *progressReader
	if req.Body != nil {
		up = &progressReader{
			ctx:   ctx,
			r:     bytes.NewReader(req.Body),
			fn:    opts.UploadProgress,
			total: int64(len(req.Body)),
		}
		body = up
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return &Error{Op: "build request", Method: req.Method, URL: req.URL, Err: err}
	}
	for k, v := range req.Header {
		for _, element := range v {
			httpReq.Header.Add(k, element)
		}
	}
	if up != nil {
		httpReq.ContentLength = up.total
		up.start()
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	resp, err := t.c.Do(httpReq)
	if err != nil {
		return &Error{Op: "exec http do", Method: req.Method, URL: req.URL, Err: err}
	}
	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			t.logger.Debug("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			t.logger.Error("failed to close response body", "error", err)
		}
	}()

	err = fn(resp)

	t.logger.Debug("tus request", "method", req.Method, "url", req.URL, "status", resp.StatusCode, "took", time.Since(start).String())

	return err
}
