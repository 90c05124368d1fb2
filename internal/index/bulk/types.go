package bulk

import "time"

//go:generate mockgen -source=types.go -destination=metrics_mock.go -package=bulk

// Metrics observes the bulk indexer's two phases. Implemented in production
// by internal/metrics.BulkIndexerMetrics, mocked in tests.
type Metrics interface {
	ObserveEnqueue(err error, started time.Time)
	ObserveDequeueMessage(err error, started time.Time)
}
