package client

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/transport"
	"github.com/adamwoolhether/tusc/client/upload"
)

// Create registers a new upload of length bytes at endpoint and returns
// its absolute URL. A relative Location is resolved against endpoint.
func (c *Client) Create(ctx context.Context, endpoint string, length int64, metadata ...protocol.Pair) (url string, err error) {
	const op = "create upload"

	req, err := protocol.NewCreate(endpoint, length, c.header, metadata...)
	if err != nil {
		return "", &upload.ConfigError{Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "tus.create", trace.WithAttributes(
		attribute.String("tus.endpoint", endpoint),
		attribute.Int64("tus.upload.length", length),
	))
	defer func() { endSpan(span, err) }()

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusCreated {
		return "", protocol.UnexpectedStatus(op, resp)
	}

	location, err := protocol.ResolveLocation(endpoint, resp.Header.Get(protocol.HeaderLocation))
	if err != nil {
		return "", err
	}

	c.logger.Info("upload created", "url", location, "length", length)

	return location, nil
}

// Head sends a HEAD to uploadURL and returns the response whatever its
// status. A transport failure that happened after a status line arrived
// is reported as a bare response with that status; other failures are
// returned as errors.
func (c *Client) Head(ctx context.Context, uploadURL string) (resp *protocol.Response, err error) {
	req, err := protocol.NewHead(uploadURL, c.header)
	if err != nil {
		return nil, &upload.ConfigError{Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "tus.head", trace.WithAttributes(attribute.String("tus.upload.url", uploadURL)))
	defer func() { endSpan(span, err) }()

	resp, err = c.http.Do(ctx, req)
	if err != nil {
		var terr *transport.Error
		if errors.As(err, &terr) && terr.StatusCode != 0 {
			c.logger.Debug("head downgraded transport error", "url", uploadURL, "status", terr.StatusCode, "error", err)
			return &protocol.Response{StatusCode: terr.StatusCode, Header: http.Header{}}, nil
		}
		return nil, err
	}

	return resp, nil
}

// ServerInfo discovers the capabilities of the tus server at endpoint.
func (c *Client) ServerInfo(ctx context.Context, endpoint string) (info protocol.ServerInfo, err error) {
	const op = "server info"

	req, err := protocol.NewOptions(endpoint, c.header)
	if err != nil {
		return protocol.ServerInfo{}, &upload.ConfigError{Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "tus.options", trace.WithAttributes(attribute.String("tus.endpoint", endpoint)))
	defer func() { endSpan(span, err) }()

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return protocol.ServerInfo{}, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return protocol.ServerInfo{}, protocol.UnexpectedStatus(op, resp)
	}

	return protocol.ParseServerInfo(resp), nil
}

// Delete terminates the upload at uploadURL. It reports true when the
// server answered 204, 404 or 410, meaning the upload no longer exists,
// and false for any other status. Only transport failures are errors.
func (c *Client) Delete(ctx context.Context, uploadURL string) (deleted bool, err error) {
	req, err := protocol.NewDelete(uploadURL, c.header)
	if err != nil {
		return false, &upload.ConfigError{Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "tus.delete", trace.WithAttributes(attribute.String("tus.upload.url", uploadURL)))
	defer func() { endSpan(span, err) }()

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return false, err
	}

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound, http.StatusGone:
		c.logger.Info("upload deleted", "url", uploadURL, "status", resp.StatusCode)
		return true, nil
	default:
		c.logger.Warn("upload not deleted", "url", uploadURL, "status", resp.StatusCode)
		return false, nil
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
