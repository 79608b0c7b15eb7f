// Package server runs an HTTP handler until its context is cancelled or
// the process receives SIGINT or SIGTERM, then drains in-flight requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// Server wraps an [http.Server] with signal-driven graceful shutdown.
type Server struct {
	srv             *http.Server
	ln              net.Listener
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []shutdownFunc
}

// New creates a Server for handler. It listens on ":1080" with the
// default slog logger unless overridden via options. Write and read
// timeouts are left unset so long PATCH bodies are not cut off.
func New(handler http.Handler, optFns ...Option) *Server {
	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}

	srv := &http.Server{
		Addr:              ":1080",
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if opts.host != "" {
		srv.Addr = opts.host
	}
	if opts.readTimeout != 0 {
		srv.ReadTimeout = opts.readTimeout
	}
	if opts.writeTimeout != 0 {
		srv.WriteTimeout = opts.writeTimeout
	}

	s := Server{
		srv:             srv,
		ln:              opts.listener,
		shutdownTimeout: 20 * time.Second,
		logger:          slog.Default(),
		shutdownFuncs:   opts.shutdownFuncs,
	}
	if opts.shutdownTimeout != 0 {
		s.shutdownTimeout = opts.shutdownTimeout
	}
	if opts.logger != nil {
		s.logger = opts.logger
	}

	return &s
}

// Run serves until ctx is done or a shutdown signal arrives, then shuts
// down gracefully. It returns nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrs := make(chan error, 1)
	go func() {
		if s.ln != nil {
			s.logger.Info("server started", "addr", s.ln.Addr().String())
			serverErrs <- s.srv.Serve(s.ln)
			return
		}

		s.logger.Info("server started", "addr", s.srv.Addr)
		serverErrs <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case <-ctx.Done():
		stop()
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		s.logger.Info("shutdown complete")

		return nil
	}
}

// Shutdown runs the registered shutdown functions in order, then drains
// in-flight requests. Callers bound the wait through ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, fn := range s.shutdownFuncs {
		if err := fn(ctx); err != nil {
			s.logger.Error("shutdown func", "error", err)
		}
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		s.srv.Close()
		return fmt.Errorf("server didn't stop gracefully: %w", err)
	}

	return nil
}
