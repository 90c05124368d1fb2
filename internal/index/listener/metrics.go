package listener

import "time"

//go:generate mockgen -source=metrics.go -destination=metrics_mock.go -package=listener

// Metrics observes the listener's per-message handling paths. Implemented in
// production by internal/metrics.LiveListenerMetrics, mocked in tests.
type Metrics interface {
	ObserveBroadcast(err error, started time.Time)
	ObserveTxIndexed(err error, started time.Time)
	ObserveBlockIndexed(err error, started time.Time)
}
