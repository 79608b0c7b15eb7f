package client

import (
	"context"
	"io"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tusc/client/download"
	"github.com/adamwoolhether/tusc/client/operation"
	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/transport"
	"github.com/adamwoolhether/tusc/client/upload"
)

// Download returns a deferred GET of uploadURL. The handle's result is
// the raw response, whatever its status; interpreting it is up to the
// caller. Progress follows the response body as it arrives.
func (c *Client) Download(ctx context.Context, uploadURL string) *operation.Handle[*protocol.Response] {
	return operation.New(ctx, func(ctx context.Context, report operation.ProgressFunc) (resp *protocol.Response, err error) {
		req, err := protocol.NewGet(uploadURL, c.header)
		if err != nil {
			return nil, &upload.ConfigError{Err: err}
		}

		ctx, span := c.tracer.Start(ctx, "tus.download", trace.WithAttributes(attribute.String("tus.upload.url", uploadURL)))
		defer func() { endSpan(span, err) }()

		resp, err = c.http.Do(ctx, req, transport.WithDownloadProgress(transport.ProgressFunc(report)))
		if err != nil {
			return nil, err
		}
		c.metrics.Downloaded(int64(len(resp.Body)))

		return resp, nil
	})
}

// DownloadFile returns a deferred GET of uploadURL that streams a 200
// response to destPath through a temporary file. The handle's result is
// the number of bytes written. Any other status fails with a
// [protocol.Error].
func (c *Client) DownloadFile(ctx context.Context, uploadURL, destPath string, opts ...download.Option) *operation.Handle[int64] {
	return operation.New(ctx, func(ctx context.Context, report operation.ProgressFunc) (n int64, err error) {
		const op = "download"

		req, err := protocol.NewGet(uploadURL, c.header)
		if err != nil {
			return 0, &upload.ConfigError{Err: err}
		}

		ctx, span := c.tracer.Start(ctx, "tus.download", trace.WithAttributes(
			attribute.String("tus.upload.url", uploadURL),
			attribute.String("tus.download.path", destPath),
		))
		defer func() { endSpan(span, err) }()

		err = c.http.Stream(ctx, req, func(resp *http.Response) error {
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, protocol.MaxErrBodySize))
				return protocol.UnexpectedStatus(op, &protocol.Response{
					StatusCode: resp.StatusCode,
					Header:     resp.Header,
					Body:       body,
				})
			}

			dlOpts := slices.Concat(opts, []download.Option{download.WithProgress(download.ProgressFunc(report))})

			var err error
			n, err = download.Handle(ctx, resp.Body, resp.ContentLength, destPath, c.logger, dlOpts...)
			return err
		})
		if err != nil {
			return n, err
		}
		c.metrics.Downloaded(n)

		return n, nil
	})
}
