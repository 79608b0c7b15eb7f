package download

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrDownloadCancelled     = errors.New("download cancelled")
)

// Error reports a downloaded file that failed an integrity check.
// Want and Got hold the expected and observed values in printable form.
type Error struct {
	Path string
	Want string
	Got  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: want %s, got %s", e.Path, e.Err, e.Want, e.Got)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// digest hashes everything written through it.
type digest struct {
	h    hash.Hash
	want []byte
}

func newDigest(h hash.Hash, expected string) (*digest, error) {
	want, err := hex.DecodeString(strings.TrimSpace(expected))
	if err != nil {
		return nil, fmt.Errorf("decoding expected checksum: %w", err)
	}

	return &digest{h: h, want: want}, nil
}

func (d *digest) Write(p []byte) (int, error) {
	return d.h.Write(p)
}

// verify is a no-op on a nil digest.
func (d *digest) verify(path string) error {
	if d == nil {
		return nil
	}

	if got := d.h.Sum(nil); !bytes.Equal(got, d.want) {
		return &Error{
			Path: path,
			Want: hex.EncodeToString(d.want),
			Got:  hex.EncodeToString(got),
			Err:  ErrChecksumMismatch,
		}
	}

	return nil
}
