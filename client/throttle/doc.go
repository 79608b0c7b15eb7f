// Package throttle provides [http.RoundTripper] wrappers that limit
// outbound tus traffic using the token-bucket limiter from
// [golang.org/x/time/rate].
//
// [NewRoundTripper] caps the request rate, which bounds how quickly a
// resynchronizing upload can hammer a struggling server:
//
//	rt, err := throttle.NewRoundTripper(10, 5, func() *slog.Logger { return slog.Default() }, http.DefaultTransport)
//
// [NewBandwidthRoundTripper] caps request body throughput, pacing the
// bytes of each PATCH:
//
//	rt, err := throttle.NewBandwidthRoundTripper(1<<20, nil, http.DefaultTransport)
//
// When a limit is exceeded, requests and body reads block until tokens
// become available or the request context is cancelled.
package throttle
