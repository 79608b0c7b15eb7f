package transport

import (
	"context"
	"io"
)

// ProgressFunc receives the cumulative number of bytes moved and the
// expected total. total is zero when the size is unknown.
type ProgressFunc func(transferred, total int64)

// progressReader is an io.Reader, reporting every successful read to fn
// and failing fast once ctx is done.
type progressReader struct {
	ctx         context.Context
	r           io.Reader
	fn          ProgressFunc
	transferred int64
	total       int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	if err := pr.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := pr.r.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		if pr.fn != nil {
			pr.fn(pr.transferred, pr.total)
		}
	}

	return n, err
}

// start emits the initial zero-progress tick.
func (pr *progressReader) start() {
	if pr.fn != nil {
		pr.fn(0, pr.total)
	}
}
