package protocol

import (
	"net/url"
	"strconv"
	"strings"
)

// ResolveLocation returns the absolute upload URL named by location,
// resolving relative references against requestURL.
func ResolveLocation(requestURL, location string) (string, error) {
	if location == "" {
		return "", &Error{Op: "resolve location", Header: HeaderLocation, Err: ErrMissingHeader}
	}

	loc, err := url.Parse(location)
	if err != nil {
		return "", &Error{Op: "resolve location", Header: HeaderLocation, Body: location, Err: ErrInvalidHeader}
	}
	if loc.IsAbs() {
		return loc.String(), nil
	}

	base, err := url.Parse(requestURL)
	if err != nil {
		return "", &Error{Op: "resolve location", Header: HeaderLocation, Body: requestURL, Err: ErrInvalidHeader}
	}

	return base.ResolveReference(loc).String(), nil
}

// ParseOffset reads Upload-Offset from resp. op names the calling
// operation in the returned error.
func ParseOffset(op string, resp *Response) (int64, error) {
	raw := resp.Header.Get(HeaderUploadOffset)
	if raw == "" {
		return 0, &Error{Op: op, StatusCode: resp.StatusCode, Header: HeaderUploadOffset, Err: ErrMissingHeader}
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || offset < 0 {
		return 0, &Error{Op: op, StatusCode: resp.StatusCode, Header: HeaderUploadOffset, Body: raw, Err: ErrInvalidHeader}
	}

	return offset, nil
}

// ParseLength reads Upload-Length from resp. ok is false when the
// header is absent or unparsable.
func ParseLength(resp *Response) (length int64, ok bool) {
	raw := resp.Header.Get(HeaderUploadLength)
	if raw == "" {
		return 0, false
	}

	length, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || length < 0 {
		return 0, false
	}

	return length, true
}
