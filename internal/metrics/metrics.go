// Package metrics exposes prometheus instrumentation for the scoring
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds the counters and histograms updated by the service.
type Pipeline struct {
	ScoredTotal    *prometheus.CounterVec
	IngestFailures prometheus.Counter
	PersistSeconds prometheus.Histogram
}

// NewPipeline registers the pipeline collectors on the given registry.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		ScoredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shockwatcher",
			Name:      "observations_scored_total",
			Help:      "Scored observations persisted, by severity.",
		}, []string{"severity"}),
		IngestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shockwatcher",
			Name:      "ingest_failures_total",
			Help:      "Observations that failed to fetch, parse, or score.",
		}),
		PersistSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shockwatcher",
			Name:      "score_persist_seconds",
			Help:      "End-to-end latency of scoring and persisting one observation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(p.ScoredTotal, p.IngestFailures, p.PersistSeconds)
	return p
}
