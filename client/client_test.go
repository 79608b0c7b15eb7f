package client_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/adamwoolhether/tusc/client"
	"github.com/adamwoolhether/tusc/client/download"
	"github.com/adamwoolhether/tusc/client/metrics"
	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/upload"
	"github.com/adamwoolhether/tusc/internal/tusd"
)

type test struct {
	*client.Client

	server   *httptest.Server
	store    *tusd.Store
	endpoint string
}

type tick struct {
	Transferred int64
	Total       int64
}

var discard = slog.New(slog.DiscardHandler)

// newTest starts an in-memory tus server, optionally wrapped by wrap,
// and builds a client with optFns.
func newTest(t *testing.T, wrap func(http.Handler) http.Handler, optFns ...client.Option) *test {
	t.Helper()

	h, err := tusd.New(tusd.Config{BasePath: tusd.DefaultBasePath, MaxSize: 1 << 20}, tusd.WithLogger(discard))
	if err != nil {
		t.Fatalf("building server: %v", err)
	}

	var handler http.Handler = h
	if wrap != nil {
		handler = wrap(h)
	}

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	optFns = append([]client.Option{client.WithLogger(discard)}, optFns...)
	c, err := client.Build(optFns...)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return &test{
		Client:   c,
		server:   ts,
		store:    h.Store(),
		endpoint: ts.URL + tusd.DefaultBasePath,
	}
}

func (tt *test) content(t *testing.T, uploadURL string) ([]byte, tusd.Info) {
	t.Helper()

	data, info, err := tt.store.Content(path.Base(uploadURL))
	if err != nil {
		t.Fatalf("reading upload %s: %v", uploadURL, err)
	}

	return data, info
}

func data(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return b
}

func TestBuild_InvalidOptions(t *testing.T) {
	tests := map[string]client.Option{
		"nil client":       client.WithClient(nil),
		"nil transport":    client.WithTransport(nil),
		"negative timeout": client.WithTimeout(-time.Second),
		"zero throttle":    client.WithThrottle(0, 1),
		"zero bandwidth":   client.WithBandwidth(0),
		"nil tracer":       client.WithTracer(nil),
		"nil metrics":      client.WithMetrics(nil),
		"nil proxy":        client.WithProxy(nil),
		"zero chunk size":  client.WithChunkSize(0),
		"negative chunk":   client.WithChunkSize(-5),
	}

	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := client.Build(opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := client.Build(client.WithChunkSize(0))
	if !errors.Is(err, client.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for chunk size, got %v", err)
	}
}

func TestBuild_ProxyNeedsHTTPTransport(t *testing.T) {
	proxy := func(*http.Request) (*url.URL, error) { return nil, nil }

	if _, err := client.Build(client.WithTransport(roundTripFunc(nil)), client.WithProxy(proxy)); err == nil {
		t.Error("expected error for proxy over a custom round tripper")
	}
	if _, err := client.Build(client.WithProxy(proxy)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuild_DoesNotModifyProvidedClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Minute}

	if _, err := client.Build(client.WithClient(hc), client.WithTimeout(time.Second), client.WithNoFollowRedirects()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hc.Timeout != time.Minute || hc.CheckRedirect != nil || hc.Transport != nil {
		t.Errorf("provided client was modified: %+v", hc)
	}
}

func TestClient_ServerInfo(t *testing.T) {
	tt := newTest(t, nil)

	info, err := tt.ServerInfo(t.Context(), tt.endpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := protocol.ServerInfo{
		Version:            protocol.Version,
		SupportedVersions:  []string{protocol.Version},
		Extensions:         []string{"creation", "termination", "checksum"},
		MaxSize:            1 << 20,
		ChecksumAlgorithms: []string{"sha1"},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("server info mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ServerInfo_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithLogger(discard))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := c.ServerInfo(t.Context(), ts.URL); !errors.Is(err, client.ErrUnexpectedStatusCode) {
		t.Errorf("expected ErrUnexpectedStatusCode, got %v", err)
	}
}

func TestClient_CreateUploadDownload(t *testing.T) {
	tt := newTest(t, nil, client.WithChunkSize(10))
	payload := data(25)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, int64(len(payload)), protocol.Pair{Key: "filename", Value: "data.bin"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(uploadURL, tt.endpoint) {
		t.Errorf("expected absolute upload url under %s, got %s", tt.endpoint, uploadURL)
	}

	h := tt.Upload(t.Context(), uploadURL, bytes.NewReader(payload))

	var ticks []tick
	h.Subscribe(func(transferred, total int64) {
		ticks = append(ticks, tick{transferred, total})
	})

	if err := h.Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, info := tt.content(t, uploadURL)
	if !bytes.Equal(got, payload) || !info.Complete() {
		t.Errorf("stored %q complete=%v", got, info.Complete())
	}
	if diff := cmp.Diff([]protocol.Pair{{Key: "filename", Value: "data.bin"}}, info.Metadata); diff != "" {
		t.Errorf("metadata (-want +got):\n%s", diff)
	}

	if len(ticks) == 0 || ticks[len(ticks)-1] != (tick{25, 25}) {
		t.Errorf("expected final progress (25, 25), got %v", ticks)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Transferred < ticks[i-1].Transferred {
			t.Fatalf("progress decreased: %v", ticks)
		}
	}

	resp, err := tt.Head(t.Context(), uploadURL)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get(protocol.HeaderUploadOffset) != "25" {
		t.Errorf("head: status %d offset %q", resp.StatusCode, resp.Header.Get(protocol.HeaderUploadOffset))
	}

	dl, err := tt.Download(t.Context(), uploadURL).Run()
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if dl.StatusCode != http.StatusOK || !bytes.Equal(dl.Body, payload) {
		t.Errorf("download: status %d body %q", dl.StatusCode, dl.Body)
	}
}

func TestClient_UploadAlreadyComplete(t *testing.T) {
	tt := newTest(t, nil)
	payload := data(8)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, int64(len(payload)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tt.Upload(t.Context(), uploadURL, bytes.NewReader(payload)).Wait(); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	h := tt.Upload(t.Context(), uploadURL, bytes.NewReader(payload))

	var ticks []tick
	h.Subscribe(func(transferred, total int64) {
		ticks = append(ticks, tick{transferred, total})
	})
	if err := h.Wait(); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if diff := cmp.Diff([]tick{{8, 8}}, ticks); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
}

// resetSecondPatch reads the body of the second PATCH and then aborts
// the connection with a TCP reset, before the server applies it.
func resetSecondPatch(t *testing.T, patches *atomic.Int32) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch || patches.Add(1) != 2 {
				next.ServeHTTP(w, r)
				return
			}

			_, _ = io.Copy(io.Discard, r.Body)

			conn, _, err := http.NewResponseController(w).Hijack()
			if err != nil {
				t.Errorf("hijack: %v", err)
				return
			}
			if tcp, ok := conn.(*net.TCPConn); ok {
				_ = tcp.SetLinger(0)
			}
			_ = conn.Close()
		})
	}
}

func TestClient_UploadResumesAfterReset(t *testing.T) {
	var patches atomic.Int32
	tt := newTest(t, resetSecondPatch(t, &patches), client.WithChunkSize(10))
	payload := data(30)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, int64(len(payload)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tt.Upload(t.Context(), uploadURL, bytes.NewReader(payload)).Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, _ := tt.content(t, uploadURL)
	if !bytes.Equal(got, payload) {
		t.Errorf("stored %q, want %q", got, payload)
	}
	if n := patches.Load(); n != 4 {
		t.Errorf("expected 4 PATCH requests including the retransmission, got %d", n)
	}
}

func TestClient_UploadFile(t *testing.T) {
	tt := newTest(t, nil, client.WithChunkSize(4))
	payload := data(10)

	src := filepath.Join(t.TempDir(), "src.bin")
	if err := os.WriteFile(src, payload, 0o600); err != nil {
		t.Fatal(err)
	}

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, int64(len(payload)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tt.UploadFile(t.Context(), uploadURL, src).Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, _ := tt.content(t, uploadURL)
	if !bytes.Equal(got, payload) {
		t.Errorf("stored %q, want %q", got, payload)
	}

	err = tt.UploadFile(t.Context(), uploadURL, filepath.Join(t.TempDir(), "missing")).Wait()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestClient_UploadAll(t *testing.T) {
	tt := newTest(t, nil, client.WithChunkSize(7))

	dir := t.TempDir()
	var paths []string
	for i, n := range []int{5, 20, 33} {
		p := filepath.Join(dir, string(rune('a'+i))+".bin")
		if err := os.WriteFile(p, data(n), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join(dir, "missing.bin"))

	var mu sync.Mutex
	final := make(map[string]tick)

	urls, err := tt.UploadAll(t.Context(), tt.endpoint, paths, 2, func(p string, transferred, total int64) {
		mu.Lock()
		defer mu.Unlock()
		final[filepath.Base(p)] = tick{transferred, total}
	})
	if err == nil || !strings.Contains(err.Error(), "missing.bin") {
		t.Fatalf("expected error naming the missing file, got %v", err)
	}

	if len(urls) != 4 || urls[3] != "" {
		t.Fatalf("unexpected urls: %v", urls)
	}

	for i, n := range []int{5, 20, 33} {
		got, info := tt.content(t, urls[i])
		if !bytes.Equal(got, data(n)) {
			t.Errorf("%s: stored %d bytes, want %d", paths[i], len(got), n)
		}
		if diff := cmp.Diff([]protocol.Pair{{Key: client.MetadataFilename, Value: filepath.Base(paths[i])}}, info.Metadata); diff != "" {
			t.Errorf("%s metadata (-want +got):\n%s", paths[i], diff)
		}
		if want := (tick{int64(n), int64(n)}); final[filepath.Base(paths[i])] != want {
			t.Errorf("%s: final progress %v, want %v", paths[i], final[filepath.Base(paths[i])], want)
		}
	}
}

func TestClient_UploadCancelled(t *testing.T) {
	tt := newTest(t, nil)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	h := tt.Upload(t.Context(), uploadURL, bytes.NewReader(data(10)))
	h.Cancel()

	if err := h.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, info := tt.content(t, uploadURL); info.Offset != 0 {
		t.Errorf("expected nothing sent, offset %d", info.Offset)
	}
}

func TestClient_UploadLengthMismatch(t *testing.T) {
	tt := newTest(t, nil)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = tt.Upload(t.Context(), uploadURL, bytes.NewReader(data(12))).Wait()
	if !errors.Is(err, client.ErrProtocol) {
		t.Errorf("expected ErrProtocol, got %v", err)
	}
}

func TestClient_Delete(t *testing.T) {
	tt := newTest(t, nil)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, attempt := range []string{"first", "already gone"} {
		deleted, err := tt.Delete(t.Context(), uploadURL)
		if err != nil || !deleted {
			t.Errorf("%s: deleted=%v err=%v", attempt, deleted, err)
		}
	}

	resp, err := tt.Head(t.Context(), uploadURL)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("head after delete: got %d", resp.StatusCode)
	}
}

func TestClient_DeleteStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusNoContent, true},
		{http.StatusNotFound, true},
		{http.StatusGone, true},
		{http.StatusOK, false},
		{http.StatusForbidden, false},
		{http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer ts.Close()

			c, err := client.Build(client.WithLogger(discard))
			if err != nil {
				t.Fatalf("building client: %v", err)
			}

			got, err := c.Delete(t.Context(), ts.URL+"/files/abc")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClient_DeleteTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, err := client.Build(client.WithLogger(discard))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	deleted, err := c.Delete(t.Context(), addr+"/files/abc")
	if deleted || !errors.Is(err, client.ErrTransport) {
		t.Errorf("deleted=%v err=%v", deleted, err)
	}
}

// failingBody fails every read after the status line arrived.
type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (failingBody) Close() error             { return nil }

func TestClient_HeadDowngradesStatusFault(t *testing.T) {
	tests := []struct {
		name       string
		rt         roundTripFunc
		wantStatus int
		wantErr    error
	}{
		{
			name: "fault after status",
			rt: func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusNotFound,
					Header:     http.Header{"Upload-Offset": {"3"}},
					Body:       failingBody{},
					Request:    r,
				}, nil
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "fault without status",
			rt: func(r *http.Request) (*http.Response, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			wantErr: client.ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := client.Build(client.WithLogger(discard), client.WithTransport(tt.rt))
			if err != nil {
				t.Fatalf("building client: %v", err)
			}

			resp, err := c.Head(t.Context(), "http://tus.example.com/files/abc")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if resp != nil {
					t.Errorf("expected no response, got %+v", resp)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if len(resp.Header) != 0 {
				t.Errorf("expected bare response, got headers %v", resp.Header)
			}
		})
	}
}

func TestClient_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantErr: client.ErrAuthFailure,
		},
		{
			name:    "wrong status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			wantErr: client.ErrUnexpectedStatusCode,
		},
		{
			name:    "missing location",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) },
			wantErr: client.ErrMissingHeader,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(tc.handler)
			defer ts.Close()

			c, err := client.Build(client.WithLogger(discard))
			if err != nil {
				t.Fatalf("building client: %v", err)
			}

			_, err = c.Create(t.Context(), ts.URL+"/files/", 10)
			if !errors.Is(err, tc.wantErr) || !errors.Is(err, client.ErrProtocol) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	c, err := client.Build(client.WithLogger(discard))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	if _, err := c.Create(t.Context(), "http://host/files/", -1); !errors.Is(err, client.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for negative length, got %v", err)
	}
}

func TestClient_DownloadFile(t *testing.T) {
	tt := newTest(t, nil)
	payload := data(100)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, int64(len(payload)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tt.Upload(t.Context(), uploadURL, bytes.NewReader(payload)).Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}

	sum := sha256.Sum256(payload)
	dest := filepath.Join(t.TempDir(), "out.bin")

	h := tt.DownloadFile(t.Context(), uploadURL, dest, download.WithChecksum(sha256.New(), hex.EncodeToString(sum[:])))

	var last tick
	h.Subscribe(func(transferred, total int64) {
		last = tick{transferred, total}
	})

	n, err := h.Run()
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if n != int64(len(payload)) || last != (tick{100, 100}) {
		t.Errorf("n=%d last=%v", n, last)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("downloaded content differs")
	}

	bad := filepath.Join(t.TempDir(), "bad.bin")
	_, err = tt.DownloadFile(t.Context(), uploadURL, bad, download.WithChecksum(sha256.New(), strings.Repeat("0", 64))).Run()
	if !errors.Is(err, client.ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
	if _, err := os.Stat(bad); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no file after checksum failure, got %v", err)
	}

	_, err = tt.DownloadFile(t.Context(), tt.endpoint+"missing", filepath.Join(t.TempDir(), "x")).Run()
	var perr *client.ProtocolError
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 protocol error, got %v", err)
	}
}

func TestClient_HeadersAndUserAgent(t *testing.T) {
	var seen atomic.Int32
	check := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer token" && r.Header.Get("User-Agent") == "tusc-test/1.0" {
				seen.Add(1)
			}
			next.ServeHTTP(w, r)
		})
	}

	tt := newTest(t, check,
		client.WithHeaders(http.Header{"Authorization": {"Bearer token"}}),
		client.WithUserAgent("tusc-test/1.0"),
		client.WithChunkSize(5),
	)

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tt.Upload(t.Context(), uploadURL, bytes.NewReader(data(10))).Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := tt.Delete(t.Context(), uploadURL); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// create, head, patch, patch, delete
	if n := seen.Load(); n != 5 {
		t.Errorf("expected 5 requests with custom headers, got %d", n)
	}
}

func TestClient_PerCallChunkSize(t *testing.T) {
	var patches atomic.Int32
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch {
				patches.Add(1)
			}
			next.ServeHTTP(w, r)
		})
	}

	tt := newTest(t, count, client.WithChunkSize(100))

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, 30)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tt.Upload(t.Context(), uploadURL, bytes.NewReader(data(30)), upload.WithChunkSize(10)).Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if n := patches.Load(); n != 3 {
		t.Errorf("expected per-call chunk size to win: %d patches", n)
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(metrics.WithRegistry(reg))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	tt := newTest(t, nil, client.WithMetrics(m), client.WithChunkSize(4))

	uploadURL, err := tt.Create(t.Context(), tt.endpoint, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tt.Upload(t.Context(), uploadURL, bytes.NewReader(data(10))).Wait(); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := tt.Download(t.Context(), uploadURL).Run(); err != nil {
		t.Fatalf("download: %v", err)
	}

	want := `
# HELP tusc_upload_bytes_total Total number of upload bytes acknowledged by the server
# TYPE tusc_upload_bytes_total counter
tusc_upload_bytes_total 10
# HELP tusc_upload_chunks_total Total number of upload chunks acknowledged by the server
# TYPE tusc_upload_chunks_total counter
tusc_upload_chunks_total 3
# HELP tusc_download_bytes_total Total number of response body bytes received by downloads
# TYPE tusc_download_bytes_total counter
tusc_download_bytes_total 10
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"tusc_upload_bytes_total", "tusc_upload_chunks_total", "tusc_download_bytes_total"); err != nil {
		t.Error(err)
	}
}

func TestClient_Throttle(t *testing.T) {
	tt := newTest(t, nil, client.WithThrottle(20, 1), client.WithBandwidth(1<<20))

	start := time.Now()
	for range 3 {
		if _, err := tt.ServerInfo(t.Context(), tt.endpoint); err != nil {
			t.Fatalf("server info: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected throttling, finished in %v", elapsed)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
