// Package tusc is a client for the tus resumable upload protocol.
//
// The client package holds the full API; this package adds shortcuts
// for the common cases.
package tusc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamwoolhether/tusc/client"
	"github.com/adamwoolhether/tusc/client/protocol"
)

// NewClient instantiates a new *client.Client with the provided options.
// If not specified, a fresh http.Client over http.DefaultTransport is used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// UploadFile creates an upload at endpoint for the file at path, sends
// it, and returns the upload URL. The URL is also returned when sending
// fails after creation, so the upload can be resumed. progress may be nil.
func UploadFile(ctx context.Context, endpoint, path string, progress func(transferred, total int64), opts ...client.Option) (string, error) {
	c, err := client.Build(opts...)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}

	uploadURL, err := c.Create(ctx, endpoint, fi.Size(), protocol.Pair{Key: client.MetadataFilename, Value: filepath.Base(path)})
	if err != nil {
		return "", err
	}

	h := c.UploadFile(ctx, uploadURL, path)
	if progress != nil {
		h.Subscribe(progress)
	}

	if err := h.Wait(); err != nil {
		return uploadURL, err
	}

	return uploadURL, nil
}
