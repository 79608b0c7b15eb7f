// Package client implements a tus 1.0.0 resumable-upload client on top
// of [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(time.Minute),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithHeaders(http.Header{"Authorization": {"Bearer " + token}}),
//	)
//
// # Uploading
//
// [Client.Create] registers an upload and returns its URL. [Client.Upload]
// returns an [operation.Handle]: nothing is sent until the handle runs,
// so progress subscribers attached first see every event:
//
//	uploadURL, err := c.Create(ctx, "https://tus.example.com/files/", size,
//		protocol.Pair{Key: "filename", Value: "video.mp4"},
//	)
//	h := c.Upload(ctx, uploadURL, f, upload.WithChunkSize(8<<20))
//	h.Subscribe(func(n, total int64) { fmt.Printf("%d/%d\n", n, total) })
//	if err := h.Wait(); err != nil { ... }
//
// Uploads start wherever the server says the upload stands, so running
// the same upload again after a failure resumes it. A connection reset
// in the middle of a chunk is recovered automatically by asking the
// server for its offset and continuing from there.
//
// # Other Operations
//
// [Client.ServerInfo] discovers server capabilities, [Client.Head]
// probes an upload, [Client.Delete] terminates one, and
// [Client.Download] / [Client.DownloadFile] fetch its content.
//
// # Errors
//
// Failures of the HTTP exchange match [ErrTransport], responses that
// break the protocol match [ErrProtocol], and invalid input matches
// [ErrConfiguration]. Use [errors.As] with [*TransportError],
// [*ProtocolError] or [*ConfigError] for details.
package client
