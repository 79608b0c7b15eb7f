package download

import (
	"errors"
	"hash"
)

// ProgressFunc receives the cumulative bytes written and the expected
// total. total is zero when the server sent no Content-Length.
type ProgressFunc func(written, total int64)

// Option defines optional settings for downloading files.
type Option func(*options) error

type options struct {
	checksum     *digest
	progress     ProgressFunc
	logProgress  bool
	skipExisting bool
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}
		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		d, err := newDigest(h, expected)
		if err != nil {
			return err
		}

		opts.checksum = d
		return nil
	}
}

// WithProgress reports every write to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("progress func must not be nil")
		}

		opts.progress = fn
		return nil
	}
}

// WithProgressLog enables periodic progress logging via the logger
// supplied to Handle.
func WithProgressLog() Option {
	return func(opts *options) error {
		opts.logProgress = true
		return nil
	}
}

// WithSkipExisting causes Handle to return immediately when the
// destination file already exists, avoiding a redundant download.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
