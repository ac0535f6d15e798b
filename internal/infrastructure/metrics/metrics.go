// Package metrics provides Prometheus metrics for user-hub.
package metrics

import (
	"time"

	"user-hub/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal counts resolutions by where the answer came from and
	// how it ended.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userhub",
			Name:      "resolutions_total",
			Help:      "Total number of resolutions",
		},
		[]string{"service", "source", "outcome"},
	)

	// FetchesTotal counts remote fetches by outcome.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userhub",
			Name:      "fetches_total",
			Help:      "Total number of remote fetches",
		},
		[]string{"service", "outcome"},
	)

	// FetchDuration measures remote fetch duration.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "userhub",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of remote fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// PooledSessions tracks sessions with a live resolver.
	PooledSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "userhub",
			Name:      "pooled_sessions",
			Help:      "Number of sessions holding a pooled resolver",
		},
	)
)

// outcome labels a resolution: "ok" or the error kind.
func outcome(err *domain.ResolutionError) string {
	if err == nil {
		return "ok"
	}
	return err.Kind.String()
}

// Recorder implements domain.ResolutionRecorder on the package metrics.
type Recorder struct{}

// RecordResolution records one finished resolution.
func (Recorder) RecordResolution(service, source string, err *domain.ResolutionError) {
	ResolutionsTotal.WithLabelValues(service, source, outcome(err)).Inc()
}

// RecordFetch records one remote fetch.
func (Recorder) RecordFetch(service string, d time.Duration, err *domain.ResolutionError) {
	FetchesTotal.WithLabelValues(service, outcome(err)).Inc()
	FetchDuration.WithLabelValues(service).Observe(d.Seconds())
}

// SetPooledSessions sets the pooled session gauge.
func SetPooledSessions(n int) {
	PooledSessions.Set(float64(n))
}
