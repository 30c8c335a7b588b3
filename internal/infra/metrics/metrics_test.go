package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsLookupsAndFailures(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)
	r.ProbeObserved("power", 10*time.Millisecond, errors.New("no battery"))
	r.ProbeObserved("throughput", time.Second, nil)
	r.AggregationFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.probeFailures.WithLabelValues("power")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.probeFailures.WithLabelValues("throughput")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.aggregations))
}

func TestRecorderRegistryExposesReportMetrics(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.CacheLookup(true)
	r.ProbeObserved("ip", time.Millisecond, nil)
	r.AggregationFailed()

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"finder_cache_lookups_total",
		"finder_probe_duration_seconds",
		"finder_aggregation_failures_total",
		"go_goroutines",
	} {
		assert.True(t, names[want], want)
	}
}
