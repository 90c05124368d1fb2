package listener

import (
	"context"

	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

//go:generate mockgen -source=types.go -destination=types_mock.go -package=listener

// EventBus publishes the listener's fire-and-forget event topics (spec.md
// §6 NeedIndexNewTransaction/NeedIndexNewBlock). Best-effort: there is no
// durable outbox linking an index write to its publish, so a crash between
// the two silently drops the event (spec.md §9 Open Question).
type EventBus interface {
	PublishNewTransaction(ctx context.Context, txid model.Hash) error
	PublishNewBlock(ctx context.Context, header model.Header) error
}

// PeerGroup is every peer connection the listener currently holds, used by
// the broadcaster to gate sends on connection count and fan an inv out to
// all of them.
type PeerGroup interface {
	ConnectedCount() int
	Broadcast(msg wire.Message)
}

// PeerConn is the subset of *peer.Peer the listener's per-connection state
// machine needs; narrowed to an interface so tests can fake a connection
// without a real TCP handshake.
type PeerConn interface {
	Addr() string
	Connected() bool
	QueueMessage(msg wire.Message, doneChan chan<- struct{})
	Disconnect()
}
