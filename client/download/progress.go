package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// progressWriter is an io.Writer, reporting every write to fn and
// logging at most once per second when a logger is set.
type progressWriter struct {
	w           io.Writer
	fn          ProgressFunc
	logger      *slog.Logger
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if pw.fn != nil && n > 0 {
		pw.fn(pw.transferred, pw.total)
	}

	if pw.logger != nil {
		if time.Since(pw.lastLog) >= time.Second {
			pw.lastLog = time.Now()
			pw.log("downloading")
		}
		if pw.total > 0 && pw.transferred == pw.total {
			pw.log("download complete")
		}
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", humanize.IBytes(uint64(pw.transferred)),
		"rate", humanize.IBytes(uint64(float64(pw.transferred)/max(elapsed.Seconds(), 0.001))) + "/s",
	}
	if pw.total > 0 {
		attrs = append(attrs,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
			"total", humanize.IBytes(uint64(pw.total)),
		)
	}
	pw.logger.Info(msg, attrs...)
}

// contextReader is an io.Reader that fails once ctx is done, so a
// stalled copy stops at the next read.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
