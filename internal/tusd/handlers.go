package tusd

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/internal/tusd/errs"
	"github.com/adamwoolhether/tusc/internal/tusd/mux"
)

// StatusChecksumMismatch is returned when a PATCH body does not match
// its Upload-Checksum.
const StatusChecksumMismatch = 460

func (h *Handler) options(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hdr := w.Header()
	hdr.Set(protocol.HeaderTusVersion, protocol.Version)
	hdr.Set(protocol.HeaderTusExtension, Extensions)
	hdr.Set(protocol.HeaderTusChecksumAlgorithm, protocol.ChecksumAlgorithm)
	if h.cfg.MaxSize > 0 {
		hdr.Set(protocol.HeaderTusMaxSize, strconv.FormatInt(h.cfg.MaxSize, 10))
	}

	return mux.Respond(ctx, w, http.StatusNoContent)
}

func (h *Handler) create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	raw := r.Header.Get(protocol.HeaderUploadLength)
	if raw == "" {
		return errs.Newf(http.StatusBadRequest, "missing %s header", protocol.HeaderUploadLength)
	}
	length, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || length < 0 {
		return errs.Newf(http.StatusBadRequest, "invalid %s %q", protocol.HeaderUploadLength, raw)
	}
	if h.cfg.MaxSize > 0 && length > h.cfg.MaxSize {
		return errs.Newf(http.StatusRequestEntityTooLarge, "upload length %d exceeds maximum %d", length, h.cfg.MaxSize)
	}

	var metadata []protocol.Pair
	if hdr := r.Header.Get(protocol.HeaderUploadMetadata); hdr != "" {
		if metadata, err = protocol.DecodeMetadata(hdr); err != nil {
			return errs.New(http.StatusBadRequest, err)
		}
	}

	info := h.store.Create(length, metadata)
	h.metrics.created.Inc()

	mux.SetUpload(ctx, info.ID, 0)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("tus.length", length))
	h.logger.Info("upload created", "id", info.ID, "length", length, "trace_id", mux.TraceID(ctx))

	w.Header().Set(protocol.HeaderLocation, h.cfg.BasePath+info.ID)

	return mux.Respond(ctx, w, http.StatusCreated)
}

func (h *Handler) head(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	mux.SetUpload(ctx, id, 0)

	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err)
	}

	hdr := w.Header()
	hdr.Set("Cache-Control", "no-store")
	hdr.Set(protocol.HeaderUploadOffset, strconv.FormatInt(info.Offset, 10))
	hdr.Set(protocol.HeaderUploadLength, strconv.FormatInt(info.Length, 10))
	if len(info.Metadata) > 0 {
		hdr.Set(protocol.HeaderUploadMetadata, protocol.EncodeMetadata(info.Metadata...))
	}

	return mux.Respond(ctx, w, http.StatusOK)
}

func (h *Handler) patch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")

	if ct := r.Header.Get(protocol.HeaderContentType); ct != protocol.ContentTypeOffsetOctetStream {
		h.metrics.rejected.WithLabelValues("content_type").Inc()
		return errs.Newf(http.StatusUnsupportedMediaType, "content type %q not supported", ct)
	}

	raw := r.Header.Get(protocol.HeaderUploadOffset)
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || offset < 0 {
		h.metrics.rejected.WithLabelValues("offset").Inc()
		return errs.Newf(http.StatusBadRequest, "invalid %s %q", protocol.HeaderUploadOffset, raw)
	}

	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err)
	}
	if offset != info.Offset {
		h.metrics.rejected.WithLabelValues("offset").Inc()
		return errs.Newf(http.StatusConflict, "offset %d does not match upload offset %d", offset, info.Offset)
	}

	verify, err := checksumVerifier(r.Header.Get(protocol.HeaderUploadChecksum))
	if err != nil {
		h.metrics.rejected.WithLabelValues("checksum").Inc()
		return err
	}

	remaining := info.Length - info.Offset
	data, err := io.ReadAll(io.LimitReader(r.Body, remaining+1))
	if err != nil {
		return fmt.Errorf("reading patch body for %s: %w", id, err)
	}
	if int64(len(data)) > remaining {
		h.metrics.rejected.WithLabelValues("length").Inc()
		return errs.Newf(http.StatusRequestEntityTooLarge, "body exceeds remaining %d bytes", remaining)
	}

	if verify != nil && !verify(data) {
		h.metrics.rejected.WithLabelValues("checksum").Inc()
		return errs.Newf(StatusChecksumMismatch, "checksum mismatch")
	}

	next, err := h.store.Append(id, offset, data)
	if err != nil {
		return storeError(err)
	}
	h.metrics.received.Add(float64(len(data)))

	mux.SetUpload(ctx, id, int64(len(data)))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("tus.offset", next))
	if next == info.Length {
		h.logger.Info("upload completed", "id", id, "length", info.Length, "trace_id", mux.TraceID(ctx))
	}

	w.Header().Set(protocol.HeaderUploadOffset, strconv.FormatInt(next, 10))

	return mux.Respond(ctx, w, http.StatusNoContent)
}

func (h *Handler) terminate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	mux.SetUpload(ctx, id, 0)

	if err := h.store.Delete(id); err != nil {
		return storeError(err)
	}
	h.metrics.terminated.Inc()

	return mux.Respond(ctx, w, http.StatusNoContent)
}

func (h *Handler) download(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, info, err := h.store.Content(r.PathValue("id"))
	if err != nil {
		return storeError(err)
	}

	hdr := w.Header()
	hdr.Set(protocol.HeaderContentType, "application/octet-stream")
	hdr.Set(protocol.HeaderContentLength, strconv.Itoa(len(data)))
	hdr.Set(protocol.HeaderUploadOffset, strconv.FormatInt(info.Offset, 10))

	mux.SetStatusCode(ctx, http.StatusOK)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing upload %s: %w", info.ID, err)
	}

	return nil
}

// checksumVerifier parses an Upload-Checksum header. An empty header
// yields a nil verifier.
func checksumVerifier(header string) (func([]byte) bool, error) {
	if header == "" {
		return nil, nil
	}

	algorithm, encoded, ok := strings.Cut(header, " ")
	if !ok {
		return nil, errs.Newf(http.StatusBadRequest, "invalid %s %q", protocol.HeaderUploadChecksum, header)
	}
	if !strings.EqualFold(algorithm, protocol.ChecksumAlgorithm) {
		return nil, errs.Newf(http.StatusBadRequest, "unsupported checksum algorithm %q", algorithm)
	}

	want, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errs.Newf(http.StatusBadRequest, "invalid checksum encoding: %v", err)
	}

	return func(data []byte) bool {
		sum := sha1.Sum(data)
		return string(sum[:]) == string(want)
	}, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errs.New(http.StatusNotFound, err)
	case errors.Is(err, ErrOffsetMismatch):
		return errs.New(http.StatusConflict, err)
	case errors.Is(err, ErrExceedsLength):
		return errs.New(http.StatusRequestEntityTooLarge, err)
	default:
		return err
	}
}
