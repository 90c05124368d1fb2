package listener

import (
	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/queue"
	"github.com/goodnatureofminers/chainindex/internal/index/scheduler"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

// Session bundles one peer's Handlers with the Broadcaster that rides
// alongside it, sharing a single broadcastingSet and RejectStore between
// the two the way spec.md §4.G/§4.H describe. Constructing both through one
// call keeps broadcastingSet unexported: callers outside the package never
// need to touch it directly.
type Session struct {
	Handlers    *Handlers
	Broadcaster *Broadcaster
}

// NewSession wires a Handlers/Broadcaster pair for one peer connection.
func NewSession(
	coin, network string,
	st store.Store,
	chain *headerchain.Chain,
	chainScheduler *scheduler.Scheduler,
	headerSync *HeaderSync,
	broadcastQueue queue.Queue[BroadcastMessage],
	peers PeerGroup,
	events EventBus,
	metrics Metrics,
	logger *zap.Logger,
) *Session {
	rejects := NewRejectStore(st, coin, network)
	confirmed := NewConfirmationChecker(st, chain, coin, network)
	broadcasting := newBroadcastingSet()

	handlers := NewHandlers(coin, network, st, chain, chainScheduler, headerSync, broadcasting, rejects, events, metrics, logger)
	broadcaster := NewBroadcaster(broadcastQueue, peers, rejects, confirmed, broadcasting, metrics, logger)

	return &Session{Handlers: handlers, Broadcaster: broadcaster}
}
