package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adamwoolhether/tusc/client/operation"
	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/client/upload"
)

// MetadataFilename is the Upload-Metadata key carrying a file's base
// name when uploads are created by [Client.UploadAll].
const MetadataFilename = "filename"

// Upload returns a deferred upload of src to the existing upload at
// uploadURL. Nothing is sent until the handle is started or run. The
// caller owns src and must keep it open until the handle is done.
func (c *Client) Upload(ctx context.Context, uploadURL string, src io.ReadSeeker, opts ...upload.Option) *operation.Handle[struct{}] {
	return operation.New(ctx, func(ctx context.Context, report operation.ProgressFunc) (struct{}, error) {
		engine, err := c.engine(opts...)
		if err != nil {
			return struct{}{}, err
		}

		return struct{}{}, engine.Run(ctx, uploadURL, src, upload.ProgressFunc(report))
	})
}

// UploadFile is [Client.Upload] for the file at path. The file is
// opened when the work starts and closed when it ends, on every path.
func (c *Client) UploadFile(ctx context.Context, uploadURL, path string, opts ...upload.Option) *operation.Handle[struct{}] {
	return operation.New(ctx, func(ctx context.Context, report operation.ProgressFunc) (struct{}, error) {
		return struct{}{}, c.uploadFile(ctx, uploadURL, path, report, opts...)
	})
}

// BatchProgressFunc receives progress for one file of [Client.UploadAll].
type BatchProgressFunc func(path string, transferred, total int64)

// UploadAll creates an upload at endpoint for every file in paths and
// uploads them concurrently, at most maxConcurrent at a time (unlimited
// when <= 0). It returns the upload URLs in the order of paths, with an
// empty string for each file that could not be created, and all errors
// joined. progress may be nil.
func (c *Client) UploadAll(ctx context.Context, endpoint string, paths []string, maxConcurrent int, progress BatchProgressFunc, opts ...upload.Option) ([]string, error) {
	if _, err := c.engine(opts...); err != nil {
		return nil, err
	}

	queue := operation.NewQueue(maxConcurrent)
	handles := make([]*operation.Handle[string], len(paths))

	for i, path := range paths {
		h := operation.New(ctx, func(ctx context.Context, report operation.ProgressFunc) (string, error) {
			fi, err := os.Stat(path)
			if err != nil {
				return "", fmt.Errorf("stat %s: %w", path, err)
			}

			uploadURL, err := c.Create(ctx, endpoint, fi.Size(), protocol.Pair{Key: MetadataFilename, Value: filepath.Base(path)})
			if err != nil {
				return "", fmt.Errorf("%s: %w", path, err)
			}

			if err := c.uploadFile(ctx, uploadURL, path, report, opts...); err != nil {
				return uploadURL, fmt.Errorf("%s: %w", path, err)
			}

			return uploadURL, nil
		})
		if progress != nil {
			h.Subscribe(func(transferred, total int64) {
				progress(path, transferred, total)
			})
		}

		handles[i] = h
		queue.Add(ctx, h)
	}

	err := queue.Wait()

	urls := make([]string, len(handles))
	for i, h := range handles {
		urls[i], _ = h.Run()
	}

	return urls, err
}

func (c *Client) uploadFile(ctx context.Context, uploadURL, path string, report operation.ProgressFunc, opts ...upload.Option) (err error) {
	engine, err := c.engine(opts...)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing source: %w", cerr))
		}
	}()

	return engine.Run(ctx, uploadURL, f, upload.ProgressFunc(report))
}
