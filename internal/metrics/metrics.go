// Package metrics holds the Prometheus collectors exposed on the admin router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "machines"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// Gateway metrics
	GatewayQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "queries_total",
			Help:      "Queries sent to the analytics engine",
		},
		[]string{"backend", "outcome"},
	)

	GatewayQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "query_duration_seconds",
			Help:      "Time until the first byte of a query result",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"backend"},
	)

	// Feature extraction metrics
	Extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "extractions_total",
			Help:      "Feature extraction requests",
		},
		[]string{"outcome"},
	)

	ExtractedObservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "observations_total",
			Help:      "Observations committed to the feature store",
		},
		[]string{"class"},
	)

	StoredDatasets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "stored_datasets",
			Help:      "Datasets currently held by the feature store",
		},
	)

	// Training metrics
	Trainings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "models",
			Name:      "trainings_total",
			Help:      "Train-and-evaluate requests per classifier",
		},
		[]string{"classifier", "outcome"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "models",
			Name:      "training_duration_seconds",
			Help:      "Time spent fitting and scoring a classifier",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"classifier"},
	)
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Since observes the time elapsed from start on h.
func Since(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
