// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the resolver collectors. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg. Collectors
// already registered by a previous call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "locator",
			Name:      "cache_lookups_total",
			Help:      "Resolution cache lookups by result (hit, miss).",
		}, []string{"result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "locator",
			Name:      "resolutions_total",
			Help:      "Successful resolutions by confidence tier.",
		}, []string{"tier"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "locator",
			Name:      "resolution_errors_total",
			Help:      "Failed resolutions by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "locator",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of cache-missing resolutions.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20},
		}),
	}

	var err error
	if m.cacheLookups, err = register(reg, m.cacheLookups); err != nil {
		return nil, err
	}

	if m.resolutions, err = register(reg, m.resolutions); err != nil {
		return nil, err
	}

	if m.failures, err = register(reg, m.failures); err != nil {
		return nil, err
	}

	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) resolved(tier Tier, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.resolutions.WithLabelValues(string(tier)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) failed(err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.failures.WithLabelValues(ErrorKind(err)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
