package listener

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"
)

// Listener drives one connected peer through the state machine spec.md
// §4.G describes: Connecting -> Handshaked -> HeadersSynced -> Streaming,
// with Disconnected reachable from any state. On entering Handshaked it
// fetches headers and extends the chain; once the chain is stored, it wires
// the message handler and enters Streaming.
type Listener struct {
	logger *zap.Logger
	conn   PeerConn

	state      *stateMachine
	headerSync *HeaderSync
	handlers   *Handlers

	mu      sync.Mutex
	lastErr error
}

// NewListener constructs a Listener for an already-connected peer.
func NewListener(conn PeerConn, headerSync *HeaderSync, handlers *Handlers, logger *zap.Logger) *Listener {
	return &Listener{
		logger:     logger.Named("listener").With(zap.String("peer", conn.Addr())),
		conn:       conn,
		state:      newStateMachine(),
		headerSync: headerSync,
		handlers:   handlers,
	}
}

// Start advances the peer from Connecting through an initial header sync
// and into Streaming. The caller is responsible for routing inbound wire
// messages to Dispatch once Start returns without error.
func (l *Listener) Start(ctx context.Context) error {
	if !l.conn.Connected() {
		return fmt.Errorf("listener: peer %s is not connected", l.conn.Addr())
	}
	if err := l.state.transition(Handshaked); err != nil {
		return err
	}

	if err := l.headerSync.SynchronizeFrom(ctx, l.conn); err != nil {
		l.fail(err)
		return fmt.Errorf("listener: initial header sync with %s: %w", l.conn.Addr(), err)
	}
	if err := l.state.transition(HeadersSynced); err != nil {
		return err
	}

	return l.state.transition(Streaming)
}

// Dispatch routes one inbound wire message to the matching handler. Only
// meaningful once the peer has reached Streaming; messages arriving
// earlier are logged and dropped.
func (l *Listener) Dispatch(ctx context.Context, msg wire.Message) {
	if l.state.get() != Streaming {
		l.logger.Debug("dropping message received outside streaming state",
			zap.String("state", l.state.get().String()))
		return
	}

	switch m := msg.(type) {
	case *wire.MsgInv:
		l.handlers.HandleInv(l.conn, m)
	case *wire.MsgTx:
		l.handlers.HandleTx(ctx, m)
	case *wire.MsgBlock:
		l.handlers.HandleBlock(ctx, l.conn, m)
	case *wire.MsgGetData:
		l.handlers.HandleGetData(l.conn, m)
	case *wire.MsgReject:
		l.handlers.HandleReject(ctx, m)
	default:
		l.logger.Debug("ignoring unhandled message type")
	}
}

// State returns the peer's current position in the state machine.
func (l *Listener) State() State {
	return l.state.get()
}

// fail records err as the most recent failure; each call overwrites the
// previous one (spec.md §9 "last exception" field: last-writer-wins).
func (l *Listener) fail(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
}

// LastError returns the most recently recorded failure, if any.
func (l *Listener) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Shutdown disconnects the peer and joins every tracked goroutine the
// handlers spawned before returning, so callers can rely on no further
// index writes happening after Shutdown returns.
func (l *Listener) Shutdown() error {
	_ = l.state.transition(Disconnected)
	l.conn.Disconnect()
	l.handlers.Wait()
	return l.LastError()
}
