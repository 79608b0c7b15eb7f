package upload_test

import (
	"context"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/transport"
)

const uploadURL = "https://tus.example.com/files/abc"

// fakeServer is an in-memory tus server behind the transport.Doer seam.
type fakeServer struct {
	mu sync.Mutex

	length int64
	stored []byte

	// resets maps 1-based PATCH numbers to the number of chunk bytes the
	// server keeps before the connection resets.
	resets map[int]int
	// ticks enables transport progress callbacks during PATCH.
	ticks bool

	heads   int
	patches []patchCall
	headers []http.Header
}

type patchCall struct {
	Offset   int64
	Size     int
	Checksum string
}

func newFakeServer(length int64) *fakeServer {
	return &fakeServer{length: length}
}

func (f *fakeServer) Do(ctx context.Context, req *protocol.Request, optFns ...transport.DoOption) (*protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &transport.Error{Op: "exec http do", Method: req.Method, URL: req.URL, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.headers = append(f.headers, req.Header)
	opts := transport.ResolveOptions(optFns...)

	switch req.Method {
	case http.MethodHead:
		f.heads++
		return &protocol.Response{StatusCode: http.StatusOK, Header: f.offsetHeader(true)}, nil

	case http.MethodPatch:
		offset, _ := strconv.ParseInt(req.Header.Get(protocol.HeaderUploadOffset), 10, 64)
		f.patches = append(f.patches, patchCall{
			Offset:   offset,
			Size:     len(req.Body),
			Checksum: req.Header.Get(protocol.HeaderUploadChecksum),
		})
		if offset != int64(len(f.stored)) {
			return &protocol.Response{StatusCode: http.StatusConflict, Body: []byte("offset mismatch")}, nil
		}

		size := int64(len(req.Body))
		if f.ticks && opts.UploadProgress != nil {
			opts.UploadProgress(0, size)
			opts.UploadProgress(size/2, size)
			opts.UploadProgress(size, size)
		}

		if keep, ok := f.resets[len(f.patches)]; ok {
			f.stored = append(f.stored, req.Body[:keep]...)
			return nil, resetError(req)
		}

		f.stored = append(f.stored, req.Body...)
		return &protocol.Response{StatusCode: http.StatusNoContent, Header: f.offsetHeader(false)}, nil
	}

	return &protocol.Response{StatusCode: http.StatusMethodNotAllowed}, nil
}

func (f *fakeServer) offsetHeader(withLength bool) http.Header {
	h := http.Header{}
	h.Set(protocol.HeaderUploadOffset, strconv.Itoa(len(f.stored)))
	if withLength {
		h.Set(protocol.HeaderUploadLength, strconv.FormatInt(f.length, 10))
	}

	return h
}

func resetError(req *protocol.Request) error {
	return &transport.Error{
		Op:     "exec http do",
		Method: req.Method,
		URL:    req.URL,
		Err: &net.OpError{
			Op:  "write",
			Net: "tcp",
			Err: os.NewSyscallError("write", syscall.ECONNRESET),
		},
	}
}

// doerFunc adapts a func to transport.Doer.
type doerFunc func(ctx context.Context, req *protocol.Request, opts ...transport.DoOption) (*protocol.Response, error)

func (f doerFunc) Do(ctx context.Context, req *protocol.Request, opts ...transport.DoOption) (*protocol.Response, error) {
	return f(ctx, req, opts...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	chunks  int
	bytes   int
	resyncs int
	results []string
}

func (r *fakeRecorder) ChunkSent(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks++
	r.bytes += n
}

func (r *fakeRecorder) Resynced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resyncs++
}

func (r *fakeRecorder) UploadFinished(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}
