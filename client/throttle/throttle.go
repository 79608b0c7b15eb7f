package throttle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the request throttle's requests per second and burst.
type Config struct {
	RPS   int
	Burst int
}

// requests is an http.RoundTripper, using the time/rate token bucket
// limiter to restrict outbound calls.
type requests struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    http.RoundTripper
	logFn   func() *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that throttles outbound
// requests. logFn lazily resolves the logger at request time, making
// option ordering irrelevant. A nil logFn, or one returning nil,
// disables the exhaustion log lines.
func NewRoundTripper(rps, burst int, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if next == nil {
		next = http.DefaultTransport
	}

	return &requests{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
		logFn:   logFn,
	}, nil
}

func (t *requests) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	logger := resolve(t.logFn)
	if logger != nil && t.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "rate", t.rps, "burst", t.burst, "method", r.Method, "path", r.URL.Path)

		start := time.Now()
		defer func() {
			logger.Info("throttle wait complete", "waited", time.Since(start).String(), "method", r.Method, "path", r.URL.Path)
		}()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}

// bandwidth is an http.RoundTripper pacing request bodies to a byte rate.
type bandwidth struct {
	limiter *rate.Limiter
	next    http.RoundTripper
	logFn   func() *slog.Logger
}

// NewBandwidthRoundTripper returns an http.RoundTripper that limits
// request body throughput to bytesPerSec, with one second's worth of
// bytes as burst. Requests without a body pass straight through.
func NewBandwidthRoundTripper(bytesPerSec int64, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if bytesPerSec <= 0 {
		return nil, fmt.Errorf("bytes per second[%d] %w", bytesPerSec, ErrMustNotBeZero)
	}
	if next == nil {
		next = http.DefaultTransport
	}

	burst := int(min(bytesPerSec, int64(1<<30)))

	return &bandwidth{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		next:    next,
		logFn:   logFn,
	}, nil
}

func (b *bandwidth) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return b.next.RoundTrip(r)
	}

	if logger := resolve(b.logFn); logger != nil {
		logger.Debug("throttling request body", "method", r.Method, "path", r.URL.Path, "limit", b.limiter.Limit(), "bytes", r.ContentLength)
	}

	ctx := r.Context()
	cpy := r.Clone(ctx)
	cpy.Body = &pacedBody{ctx: ctx, rc: r.Body, limiter: b.limiter}
	if r.GetBody != nil {
		cpy.GetBody = func() (io.ReadCloser, error) {
			rc, err := r.GetBody()
			if err != nil {
				return nil, err
			}
			return &pacedBody{ctx: ctx, rc: rc, limiter: b.limiter}, nil
		}
	}

	return b.next.RoundTrip(cpy)
}

// pacedBody is an io.ReadCloser that waits for limiter tokens for
// every byte it hands out.
type pacedBody struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *rate.Limiter
}

func (p *pacedBody) Read(buf []byte) (int, error) {
	if burst := p.limiter.Burst(); len(buf) > burst {
		buf = buf[:burst]
	}

	n, err := p.rc.Read(buf)
	if n > 0 {
		if werr := p.limiter.WaitN(p.ctx, n); werr != nil {
			return n, fmt.Errorf("%w: %w", ErrWaitingFailed, werr)
		}
	}

	return n, err
}

func (p *pacedBody) Close() error {
	return p.rc.Close()
}

func resolve(logFn func() *slog.Logger) *slog.Logger {
	if logFn == nil {
		return nil
	}

	return logFn()
}
