// Package metrics holds the Prometheus collectors of the catalog and its servers.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var (
	// queriesTotal counts range queries by outcome
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tercih_queries_total",
		Help: "Total range queries by outcome",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tercih_query_duration_seconds",
		Help:    "Range query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50µs to ~100ms
	})

	queryMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tercih_query_matches",
		Help:    "Number of schools returned per query",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tercih_catalog_reloads_total",
		Help: "Catalog reloads by result",
	}, []string{"result"})

	reloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tercih_catalog_reload_duration_seconds",
		Help:    "Catalog reload duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	schoolsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tercih_catalog_schools",
		Help: "Schools in the current catalog snapshot",
	})

	schoolsEstimated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tercih_catalog_schools_estimated",
		Help: "Schools with a defined estimate in the current snapshot",
	})
)

// ObserveQuery records one range query
func ObserveQuery(outcome string, matches int, elapsed time.Duration) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		queryMatches.Observe(float64(matches))
	}
}

// ObserveReload records one catalog reload and, on success, the snapshot size
func ObserveReload(err error, schools, estimated int, elapsed time.Duration) {
	reloadDuration.Observe(elapsed.Seconds())
	if err != nil {
		reloadsTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	reloadsTotal.WithLabelValues(OutcomeOK).Inc()
	schoolsLoaded.Set(float64(schools))
	schoolsEstimated.Set(float64(estimated))
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
