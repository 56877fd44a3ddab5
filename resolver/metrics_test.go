// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordResolutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	f := newFixture(t, addressAnswer("350 5th Ave, New York, NY"), empireStateGeocoder())
	f.resolver.metrics = m

	ctx := context.Background()
	q := Query{Clues: []string{"Empire State Building"}}

	_, err = f.resolver.Resolve(ctx, q)
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, q)
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, Query{})
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resolutions.WithLabelValues(string(TierVerifiedAddress))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.failures.WithLabelValues("input")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewMetricsReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	require.NoError(t, err)

	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.cacheLookup(true)
	assert.InDelta(t, 1, testutil.ToFloat64(second.cacheLookups.WithLabelValues("hit")), 0)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.cacheLookup(true)
		m.resolved(TierNotes, 0)
		m.failed(ErrNoClues, 0)
	})
}
