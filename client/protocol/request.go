// Package protocol builds tus requests and interprets tus responses.
//
// Builders return a [Request] descriptor, a plain value that the
// transport turns into an HTTP exchange. Nothing in this package
// performs I/O.
package protocol

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Request describes one tus request. Body is nil for requests
// without a payload.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Pair is a single Upload-Metadata entry.
type Pair struct {
	Key   string
	Value string
}

// NewCreate builds the creation request for an upload of length bytes.
// The metadata header is omitted when no pairs are given.
func NewCreate(endpoint string, length int64, extra http.Header, pairs ...Pair) (*Request, error) {
	if length < 0 {
		return nil, fmt.Errorf("upload length[%d] must not be negative", length)
	}
	if err := checkURL(endpoint); err != nil {
		return nil, err
	}

	req := newRequest(http.MethodPost, endpoint, extra)
	req.Header.Set(HeaderUploadLength, strconv.FormatInt(length, 10))
	req.Header.Set(HeaderContentLength, "0")
	if len(pairs) > 0 {
		req.Header.Set(HeaderUploadMetadata, EncodeMetadata(pairs...))
	}

	return req, nil
}

// NewPatch builds the request transmitting chunk at offset, carrying the
// SHA-1 checksum of exactly the bytes in chunk.
func NewPatch(uploadURL string, offset int64, chunk []byte, extra http.Header) (*Request, error) {
	if offset < 0 {
		return nil, fmt.Errorf("upload offset[%d] must not be negative", offset)
	}
	if err := checkURL(uploadURL); err != nil {
		return nil, err
	}

	req := newRequest(http.MethodPatch, uploadURL, extra)
	req.Header.Set(HeaderUploadOffset, strconv.FormatInt(offset, 10))
	req.Header.Set(HeaderUploadChecksum, Checksum(chunk))
	req.Header.Set(HeaderContentType, ContentTypeOffsetOctetStream)
	req.Body = chunk

	return req, nil
}

// NewHead builds an offset query for uploadURL.
func NewHead(uploadURL string, extra http.Header) (*Request, error) {
	return newSimple(http.MethodHead, uploadURL, extra)
}

// NewDelete builds a termination request for uploadURL.
func NewDelete(uploadURL string, extra http.Header) (*Request, error) {
	return newSimple(http.MethodDelete, uploadURL, extra)
}

// NewGet builds a download request for uploadURL.
func NewGet(uploadURL string, extra http.Header) (*Request, error) {
	return newSimple(http.MethodGet, uploadURL, extra)
}

// NewOptions builds a capability discovery request. OPTIONS is the one
// request that does not carry Tus-Resumable.
func NewOptions(endpoint string, extra http.Header) (*Request, error) {
	req, err := newSimple(http.MethodOptions, endpoint, extra)
	if err != nil {
		return nil, err
	}
	req.Header.Del(HeaderTusResumable)

	return req, nil
}

func newSimple(method, rawURL string, extra http.Header) (*Request, error) {
	if err := checkURL(rawURL); err != nil {
		return nil, err
	}

	return newRequest(method, rawURL, extra), nil
}

// newRequest copies the caller's additional headers first so that the
// protocol headers set afterwards always win.
func newRequest(method, rawURL string, extra http.Header) *Request {
	h := make(http.Header, len(extra)+4)
	for k, v := range extra {
		for _, element := range v {
			h.Add(k, element)
		}
	}
	h.Set(HeaderTusResumable, Version)

	return &Request{
		Method: method,
		URL:    rawURL,
		Header: h,
	}
}

func checkURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("url must not be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("url[%s] must be absolute", rawURL)
	}

	return nil
}
