// Package download streams response bodies to disk with optional
// checksum validation and progress reporting.
//
// [Handle] writes the body to a temporary file alongside the
// destination path, then atomically renames it on success:
//
//	n, err := download.Handle(ctx, body, contentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//		download.WithProgress(func(n, total int64) { ... }),
//	)
//
// Most callers should use [github.com/adamwoolhether/tusc/client.Client.DownloadFile],
// which invokes Handle with the response of a tus GET.
package download
