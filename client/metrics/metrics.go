// Package metrics exposes Prometheus collectors for tus transfers.
//
// Metrics collected (namespace "tusc" by default):
//   - tusc_upload_chunks_total: chunks acknowledged by the server
//   - tusc_upload_bytes_total: bytes acknowledged by the server
//   - tusc_upload_resyncs_total: offset re-discoveries after a connection reset
//   - tusc_uploads_total: finished uploads by result
//   - tusc_upload_duration_seconds: wall time of finished uploads
//   - tusc_download_bytes_total: response body bytes received by downloads
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for tusc_uploads_total.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCancelled = "cancelled"
)

// Config configures the collectors.
type Config struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	Buckets     []float64
	Registry    prometheus.Registerer
}

// Option configures a [Collector].
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the upload duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registerer. Default is
// [prometheus.DefaultRegisterer].
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "tusc",
		Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300, 900, 3600},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records transfer metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	chunks     prometheus.Counter
	bytes      prometheus.Counter
	resyncs    prometheus.Counter
	uploads    *prometheus.CounterVec
	duration   prometheus.Histogram
	downloaded prometheus.Counter
}

// New registers the collectors. Collectors already registered with an
// identical description are reused, so several clients may share a registry.
func New(opts ...Option) (*Collector, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	c := &Collector{
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upload_chunks_total",
			Help:        "Total number of upload chunks acknowledged by the server",
			ConstLabels: config.ConstLabels,
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upload_bytes_total",
			Help:        "Total number of upload bytes acknowledged by the server",
			ConstLabels: config.ConstLabels,
		}),
		resyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upload_resyncs_total",
			Help:        "Total number of offset re-discoveries after a connection reset",
			ConstLabels: config.ConstLabels,
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "uploads_total",
			Help:        "Total number of finished uploads by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upload_duration_seconds",
			Help:        "Wall time of finished uploads in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		downloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "download_bytes_total",
			Help:        "Total number of response body bytes received by downloads",
			ConstLabels: config.ConstLabels,
		}),
	}

	var err error
	c.chunks, err = register(config.Registry, c.chunks)
	if err != nil {
		return nil, err
	}
	c.bytes, err = register(config.Registry, c.bytes)
	if err != nil {
		return nil, err
	}
	c.resyncs, err = register(config.Registry, c.resyncs)
	if err != nil {
		return nil, err
	}
	c.uploads, err = register(config.Registry, c.uploads)
	if err != nil {
		return nil, err
	}
	c.duration, err = register(config.Registry, c.duration)
	if err != nil {
		return nil, err
	}
	c.downloaded, err = register(config.Registry, c.downloaded)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if ok {
				return existing, nil
			}
		}

		return collector, fmt.Errorf("registering collector: %w", err)
	}

	return collector, nil
}

// ChunkSent records a chunk of n bytes acknowledged by the server.
func (c *Collector) ChunkSent(n int) {
	if c == nil {
		return
	}
	c.chunks.Inc()
	c.bytes.Add(float64(n))
}

// Resynced records an offset re-discovery.
func (c *Collector) Resynced() {
	if c == nil {
		return
	}
	c.resyncs.Inc()
}

// UploadFinished records the outcome and wall time of one upload.
func (c *Collector) UploadFinished(result string, took time.Duration) {
	if c == nil {
		return
	}
	c.uploads.WithLabelValues(result).Inc()
	c.duration.Observe(took.Seconds())
}

// Downloaded records n response body bytes received.
func (c *Collector) Downloaded(n int64) {
	if c == nil {
		return
	}
	c.downloaded.Add(float64(n))
}
