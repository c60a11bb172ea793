package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Indexing and store Prometheus metrics.
var (
	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediadex",
			Name:      "documents_indexed_total",
			Help:      "Documents written to the store, by kind",
		},
		[]string{"kind"},
	)

	PartitionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mediadex",
			Name:      "partitions_created_total",
			Help:      "Schedule partitions created",
		},
	)

	BulkFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mediadex",
			Name:      "bulk_failures_total",
			Help:      "Documents rejected by bulk writes",
		},
	)

	LookupMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediadex",
			Name:      "lookup_misses_total",
			Help:      "Point lookups treated as absent",
		},
		[]string{"target", "reason"}, // target: parent/child, reason: not_found/unavailable
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mediadex",
			Name:      "store_request_duration_seconds",
			Help:      "Store request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)
)

var indexingMetricsRegistered bool

// RegisterIndexingMetrics registers indexing metrics. Must be called once from main.
func RegisterIndexingMetrics() {
	if indexingMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(PartitionsCreatedTotal)
	prometheus.MustRegister(BulkFailuresTotal)
	prometheus.MustRegister(LookupMissesTotal)
	prometheus.MustRegister(StoreRequestDuration)
	indexingMetricsRegistered = true
}

// ObserveStore records the duration of one store operation since start.
func ObserveStore(op string, start time.Time) {
	StoreRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
