package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveListenerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainindex",
		Subsystem: "live_listener",
		Name:      "events_total",
		Help:      "Count of live listener handler outcomes.",
	}, []string{"event", "coin", "network", "status"})
	liveListenerEventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainindex",
		Subsystem: "live_listener",
		Name:      "event_duration_seconds",
		Help:      "Duration of live listener handler outcomes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event", "coin", "network", "status"})
)

// LiveListener tracks metrics for internal/index/listener.Metrics: inbound
// tx/block indexing and outbound broadcast attempts.
type LiveListener struct {
	coin    string
	network string
}

// NewLiveListener constructs a metrics collector scoped to one coin/network.
func NewLiveListener(coin, network string) *LiveListener {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return &LiveListener{coin: coin, network: network}
}

func (m LiveListener) observe(event string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	liveListenerEventsTotal.WithLabelValues(event, m.coin, m.network, status).Inc()
	liveListenerEventDuration.WithLabelValues(event, m.coin, m.network, status).Observe(time.Since(started).Seconds())
}

// ObserveBroadcast records one outbound broadcast attempt.
func (m LiveListener) ObserveBroadcast(err error, started time.Time) {
	m.observe("broadcast", err, started)
}

// ObserveTxIndexed records one loose-transaction indexing attempt.
func (m LiveListener) ObserveTxIndexed(err error, started time.Time) {
	m.observe("tx_indexed", err, started)
}

// ObserveBlockIndexed records one block indexing attempt.
func (m LiveListener) ObserveBlockIndexed(err error, started time.Time) {
	m.observe("block_indexed", err, started)
}
