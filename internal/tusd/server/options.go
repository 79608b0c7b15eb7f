package server

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	host            string
	listener        net.Listener
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []shutdownFunc
}

type shutdownFunc func(ctx context.Context) error

// WithHost sets the address the server listens on.
func WithHost(host string) Option {
	return func(opts *options) {
		opts.host = host
	}
}

// WithListener serves on ln instead of opening the host address.
func WithListener(ln net.Listener) Option {
	return func(opts *options) {
		opts.listener = ln
	}
}

// WithReadTimeout bounds reading an entire request, body included.
func WithReadTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.readTimeout = d
	}
}

// WithWriteTimeout bounds writing the response.
func WithWriteTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.writeTimeout = d
	}
}

// WithShutdownTimeout sets how long [Server.Run] waits for in-flight
// requests after shutdown is requested. Default is 20s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.shutdownTimeout = d
	}
}

// WithLogger sets the logger used for server lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// WithShutdownFunc registers fn to run during graceful shutdown, before
// the HTTP server stops. Functions run in registration order.
func WithShutdownFunc(fn func(ctx context.Context) error) Option {
	return func(opts *options) {
		opts.shutdownFuncs = append(opts.shutdownFuncs, fn)
	}
}
