// Package upload implements the resumable upload state machine: it
// discovers the server's offset, transmits the source in checksummed
// chunks, and resynchronizes after the connection is reset.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/transport"
	"github.com/adamwoolhether/tusc/internal/validate"
)

// ProgressFunc receives the cumulative number of bytes the server has
// acknowledged or is receiving, and the total source length.
type ProgressFunc func(transferred, total int64)

// Result labels passed to [Recorder.UploadFinished].
const (
	resultSuccess   = "success"
	resultFailure   = "failure"
	resultCancelled = "cancelled"
)

// Engine uploads sources to existing tus upload URLs. An Engine is
// safe for concurrent use; each [Engine.Run] owns its own state.
type Engine struct {
	doer     transport.Doer
	config   Config
	header   http.Header
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// New builds an Engine that sends requests through doer. It returns a
// [*ConfigError] when the options describe an unusable configuration.
func New(doer transport.Doer, optFns ...Option) (*Engine, error) {
	if doer == nil {
		return nil, &ConfigError{Err: errors.New("doer must not be nil")}
	}

	opts := options{
		config: Config{ChunkSize: DefaultChunkSize},
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}

	if err := validate.Check(opts.config); err != nil {
		return nil, &ConfigError{Err: err}
	}

	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Engine{
		doer:     doer,
		config:   opts.config,
		header:   opts.header,
		logger:   opts.logger,
		tracer:   opts.tracer,
		recorder: opts.recorder,
	}, nil
}

// ChunkSize returns the configured maximum bytes per PATCH.
func (e *Engine) ChunkSize() int64 {
	return e.config.ChunkSize
}

// Run uploads src to uploadURL, starting wherever the server says the
// upload currently stands. Progress is reported through report, never
// decreasing. src is read from the offsets the server asks for, so the
// engine seeks it freely.
func (e *Engine) Run(ctx context.Context, uploadURL string, src io.ReadSeeker, report ProgressFunc) (err error) {
	if src == nil {
		return &ConfigError{Err: errors.New("source must not be nil")}
	}
	head, err := protocol.NewHead(uploadURL, e.header)
	if err != nil {
		return &ConfigError{Err: err}
	}

	total, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("sizing source: %w", err)
	}

	session := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "tus.upload", trace.WithAttributes(
		attribute.String("tus.upload.url", uploadURL),
		attribute.String("tus.upload.session", session),
		attribute.Int64("tus.upload.length", total),
		attribute.Int64("tus.upload.chunk_size", e.config.ChunkSize),
	))

	r := &run{
		engine: e,
		url:    uploadURL,
		head:   head,
		src:    src,
		total:  total,
		report: report,
		buf:    make([]byte, min(e.config.ChunkSize, max(total, 1))),
		log:    e.logger.With("upload_session", session, "url", uploadURL),
		state:  StateDiscoveringOffset,
	}

	start := time.Now()
	defer func() {
		result := resultSuccess
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			result = resultCancelled
		case err != nil:
			result = resultFailure
		}
		if e.recorder != nil {
			e.recorder.UploadFinished(result, time.Since(start))
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.Int("tus.upload.chunks", r.chunks),
			attribute.Int("tus.upload.resyncs", r.resyncs),
		)
		span.End()
	}()

	r.log.Debug("upload started", "length", total, "chunk_size", e.config.ChunkSize)

	return r.loop(ctx)
}

// run is the per-upload state of the machine.
type run struct {
	engine *Engine
	url    string
	head   *protocol.Request
	src    io.ReadSeeker
	total  int64
	report ProgressFunc
	buf    []byte
	log    *slog.Logger

	state    State
	offset   int64
	reported int64
	chunks   int
	resyncs  int
}

func (r *run) loop(ctx context.Context) error {
	for {
		if r.state == StateCompleted {
			r.log.Info("upload completed", "length", r.total, "chunks", r.chunks, "resyncs", r.resyncs)
			return nil
		}

		if err := ctx.Err(); err != nil {
			return r.fail(&transport.Error{Op: "upload", Method: http.MethodPatch, URL: r.url, Err: err})
		}

		switch r.state {
		case StateDiscoveringOffset, StateResynchronizing:
			offset, err := r.discoverOffset(ctx)
			if err != nil {
				return r.fail(err)
			}
			r.offset = offset

			if r.offset == r.total {
				r.emit(r.total)
				r.transition(StateCompleted)
				continue
			}
			r.transition(StateTransmitting)

		case StateTransmitting:
			if r.offset >= r.total {
				r.transition(StateCompleted)
				continue
			}

			err := r.transmit(ctx)
			switch {
			case err == nil:
			case transport.IsConnectionReset(err) && ctx.Err() == nil:
				r.resyncs++
				if r.engine.recorder != nil {
					r.engine.recorder.Resynced()
				}
				r.log.Warn("connection reset, resynchronizing", "offset", r.offset, "error", err)
				r.transition(StateResynchronizing)
			default:
				return r.fail(err)
			}
		}
	}
}

// discoverOffset asks the server how many bytes it already holds.
func (r *run) discoverOffset(ctx context.Context) (int64, error) {
	const op = "discover offset"

	ctx, span := r.engine.tracer.Start(ctx, "tus.upload.head")
	defer span.End()

	resp, err := r.engine.doer.Do(ctx, r.head)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return 0, protocol.UnexpectedStatus(op, resp)
	}

	offset, err := protocol.ParseOffset(op, resp)
	if err != nil {
		return 0, err
	}

	if length, ok := protocol.ParseLength(resp); ok && length != r.total {
		return 0, &protocol.Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Header:     protocol.HeaderUploadLength,
			Body:       fmt.Sprintf("server length %d, source length %d", length, r.total),
			Err:        protocol.ErrInvalidHeader,
		}
	}

	if offset > r.total {
		return 0, &protocol.Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Header:     protocol.HeaderUploadOffset,
			Body:       fmt.Sprintf("offset %d beyond source length %d", offset, r.total),
			Err:        protocol.ErrInvalidHeader,
		}
	}

	span.SetAttributes(attribute.Int64("tus.upload.offset", offset))

	return offset, nil
}

// transmit sends the chunk starting at r.offset and advances r.offset
// to the offset the server acknowledges.
func (r *run) transmit(ctx context.Context) error {
	const op = "upload chunk"

	base := r.offset
	chunk := r.buf[:min(int64(len(r.buf)), r.total-base)]

	if _, err := r.src.Seek(base, io.SeekStart); err != nil {
		return fmt.Errorf("seeking source to %d: %w", base, err)
	}
	if _, err := io.ReadFull(r.src, chunk); err != nil {
		return fmt.Errorf("reading chunk at %d: %w", base, err)
	}

	req, err := protocol.NewPatch(r.url, base, chunk, r.engine.header)
	if err != nil {
		return &ConfigError{Err: err}
	}

	ctx, span := r.engine.tracer.Start(ctx, "tus.upload.chunk", trace.WithAttributes(
		attribute.Int64("tus.upload.offset", base),
		attribute.Int("tus.upload.chunk_bytes", len(chunk)),
	))
	defer span.End()

	// The final transport tick doubles as the completion event when it
	// matches the acknowledged offset.
	lastTick := int64(-1)
	r.emit(base)
	resp, err := r.engine.doer.Do(ctx, req, transport.WithUploadProgress(func(written, _ int64) {
		if written > 0 {
			lastTick = base + written
			r.emit(lastTick)
		}
	}))
	if err != nil {
		span.RecordError(err)
		r.releaseBuffer()
		return err
	}

	if resp.StatusCode != http.StatusNoContent {
		return protocol.UnexpectedStatus(op, resp)
	}

	next, err := protocol.ParseOffset(op, resp)
	if err != nil {
		return err
	}
	if next <= base || next > base+int64(len(chunk)) {
		return &protocol.Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Header:     protocol.HeaderUploadOffset,
			Body:       fmt.Sprintf("offset %d after sending %d bytes at %d", next, len(chunk), base),
			Err:        protocol.ErrInvalidHeader,
		}
	}

	if next < base+int64(len(chunk)) {
		r.releaseBuffer()
	}

	r.offset = next
	r.chunks++
	if r.engine.recorder != nil {
		r.engine.recorder.ChunkSent(int(next - base))
	}
	if lastTick != next {
		r.emit(next)
	}

	return nil
}

// releaseBuffer gives the next chunk its own buffer. After a fault or a
// partial acknowledgement the transport may still be reading the
// previous request body.
func (r *run) releaseBuffer() {
	r.buf = make([]byte, len(r.buf))
}

// emit reports progress, clamped so the sequence never decreases. A
// resync may briefly move the true offset behind what was reported.
func (r *run) emit(transferred int64) {
	transferred = max(transferred, r.reported)
	r.reported = transferred

	if r.report != nil {
		r.report(transferred, r.total)
	}
}

func (r *run) transition(to State) {
	r.log.Debug("upload state", "from", r.state, "to", to, "offset", r.offset)
	r.state = to
}

func (r *run) fail(err error) error {
	from := r.state
	r.transition(StateFailed)
	r.log.Error("upload failed", "state", from, "offset", r.offset, "error", err)

	return fmt.Errorf("%s: %w", from, err)
}
