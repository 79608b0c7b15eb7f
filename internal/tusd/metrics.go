package tusd

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	created    prometheus.Counter
	received   prometheus.Counter
	terminated prometheus.Counter
	rejected   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tusd",
			Name:      "uploads_created_total",
			Help:      "Uploads created.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tusd",
			Name:      "bytes_received_total",
			Help:      "Upload bytes accepted by PATCH requests.",
		}),
		terminated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tusd",
			Name:      "uploads_terminated_total",
			Help:      "Uploads removed by DELETE requests.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tusd",
			Name:      "patches_rejected_total",
			Help:      "PATCH requests rejected, by reason.",
		}, []string{"reason"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.created, err = register(reg, m.created); err != nil {
		return nil, err
	}
	if m.received, err = register(reg, m.received); err != nil {
		return nil, err
	}
	if m.terminated, err = register(reg, m.terminated); err != nil {
		return nil, err
	}
	if m.rejected, err = register(reg, m.rejected); err != nil {
		return nil, err
	}

	return m, nil
}

// register returns the already-registered collector when c was
// registered before, so several handlers can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("registering tusd metrics: %w", err)
	}

	return c, nil
}
