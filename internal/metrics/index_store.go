package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexStoreRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainindex",
		Subsystem: "index_store",
		Name:      "operations_total",
		Help:      "Count of wide-column index store operations.",
	}, []string{"operation", "index_name", "status"})
	indexStoreRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainindex",
		Subsystem: "index_store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of wide-column index store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "index_name", "status"})
)

// IndexStore tracks metrics for internal/index/store.Store operations,
// matching the shape of ClickhouseRepository but keyed by index_name
// instead of coin/network, since a single store instance serves all four
// index variants.
type IndexStore struct{}

// NewIndexStore constructs an IndexStore metrics collector.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Observe records duration and status of one store operation.
func (m IndexStore) Observe(operation, indexName string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if indexName == "" {
		indexName = "unknown"
	}

	indexStoreRequestsTotal.WithLabelValues(operation, indexName, status).Inc()
	indexStoreRequestDuration.WithLabelValues(operation, indexName, status).Observe(time.Since(started).Seconds())
}
