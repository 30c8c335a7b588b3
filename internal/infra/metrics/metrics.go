package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finder"

// Recorder exposes report orchestration metrics on a private registry.
type Recorder struct {
	registry      *prometheus.Registry
	cacheLookups  *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	probeFailures *prometheus.CounterVec
	aggregations  prometheus.Counter
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: registry,
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of collaborator probes.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"probe"}),
		probeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Failed collaborator probes.",
		}, []string{"probe"}),
		aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_failures_total",
			Help:      "Report aggregations that ended in an error.",
		}),
	}
	registry.MustRegister(r.cacheLookups, r.probeDuration, r.probeFailures, r.aggregations)
	return r
}

func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) ProbeObserved(probe string, d time.Duration, err error) {
	r.probeDuration.WithLabelValues(probe).Observe(d.Seconds())
	if err != nil {
		r.probeFailures.WithLabelValues(probe).Inc()
	}
}

func (r *Recorder) AggregationFailed() {
	r.aggregations.Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
