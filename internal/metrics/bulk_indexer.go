package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bulkIndexerPhasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainindex",
		Subsystem: "bulk_indexer",
		Name:      "phases_total",
		Help:      "Count of bulk indexer phase runs.",
	}, []string{"phase", "coin", "network", "status"})
	bulkIndexerPhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainindex",
		Subsystem: "bulk_indexer",
		Name:      "phase_duration_seconds",
		Help:      "Duration of bulk indexer phase runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase", "coin", "network", "status"})
)

// BulkIndexer tracks metrics for the two bulk indexer phases: enqueue and
// dequeue-message, matching internal/index/bulk.Metrics.
type BulkIndexer struct {
	coin    string
	network string
}

// NewBulkIndexer constructs a metrics collector scoped to one coin/network.
func NewBulkIndexer(coin, network string) *BulkIndexer {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return &BulkIndexer{coin: coin, network: network}
}

func (m BulkIndexer) observe(phase string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	bulkIndexerPhasesTotal.WithLabelValues(phase, m.coin, m.network, status).Inc()
	bulkIndexerPhaseDuration.WithLabelValues(phase, m.coin, m.network, status).Observe(time.Since(started).Seconds())
}

// ObserveEnqueue records one enqueue-phase run.
func (m BulkIndexer) ObserveEnqueue(err error, started time.Time) {
	m.observe("enqueue", err, started)
}

// ObserveDequeueMessage records one dequeued work message being processed.
func (m BulkIndexer) ObserveDequeueMessage(err error, started time.Time) {
	m.observe("dequeue_message", err, started)
}
