package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// headersRequestTimeout bounds how long SynchronizeFrom waits for a peer to
// answer a getheaders request.
const headersRequestTimeout = 30 * time.Second

// maxHeadersPerMsg mirrors the wire protocol's per-message header cap; a
// response shorter than this means the peer has nothing more to send.
const maxHeadersPerMsg = 2000

// HeaderSync drives `getheaders`/`headers` against a single connected peer,
// extending the shared header chain (spec.md §4.C synchronize_from). It
// follows the same pending-request-channel shape blockrepo.PeerSource uses
// for getdata/block round trips, since headers responses arrive on the same
// asynchronous callback-driven connection.
type HeaderSync struct {
	chain *headerchain.Chain

	mu      sync.Mutex
	pending chan *wire.MsgHeaders
}

// NewHeaderSync constructs a HeaderSync over the shared chain.
func NewHeaderSync(chain *headerchain.Chain) *HeaderSync {
	return &HeaderSync{chain: chain}
}

// OnHeadersReceived delivers an inbound headers message to whichever
// SynchronizeFrom call is waiting on it. Wire this into
// peer.MessageListeners.OnHeaders.
func (s *HeaderSync) OnHeadersReceived(msg *wire.MsgHeaders) {
	s.mu.Lock()
	ch := s.pending
	s.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// SynchronizeFrom requests headers from the peer's locator position,
// repeating until the peer replies with fewer than a full page, extending
// the chain as headers arrive. A reply whose headers don't extend the
// current tip re-anchors the chain at the fork point via Chain.Connect's own
// reorg handling.
func (s *HeaderSync) SynchronizeFrom(ctx context.Context, conn PeerConn) error {
	for {
		tip := s.chain.Tip()
		locator, err := s.chain.LocatorOf(tip.Hash)
		if err != nil {
			return fmt.Errorf("listener: build locator from tip %s: %w", tip.Hash, err)
		}

		getHeaders := wire.NewMsgGetHeaders()
		getHeaders.BlockLocatorHashes = toChainHashes(locator)

		respCh := make(chan *wire.MsgHeaders, 1)
		s.mu.Lock()
		s.pending = respCh
		s.mu.Unlock()

		conn.QueueMessage(getHeaders, nil)

		msg, err := s.awaitResponse(ctx, respCh)
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		if err != nil {
			return err
		}

		if len(msg.Headers) == 0 {
			return nil
		}
		for _, h := range msg.Headers {
			if err := s.connectOne(h); err != nil {
				return err
			}
		}
		if len(msg.Headers) < maxHeadersPerMsg {
			return nil
		}
	}
}

func (s *HeaderSync) awaitResponse(ctx context.Context, respCh chan *wire.MsgHeaders) (*wire.MsgHeaders, error) {
	timer := time.NewTimer(headersRequestTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("listener: timed out waiting for headers")
	case msg := <-respCh:
		return msg, nil
	}
}

func (s *HeaderSync) connectOne(h *wire.BlockHeader) error {
	prevHash := model.Hash(h.PrevBlock)
	parent, ok := s.chain.GetByHash(prevHash)
	if !ok {
		return fmt.Errorf("listener: header %s has unknown parent %s", h.BlockHash(), prevHash)
	}
	return s.chain.Connect(model.Header{
		Hash:      model.Hash(h.BlockHash()),
		PrevHash:  prevHash,
		Height:    parent.Height + 1,
		Timestamp: h.Timestamp,
	})
}

func toChainHashes(locator model.BlockLocator) []chainhash.Hash {
	out := make([]chainhash.Hash, len(locator))
	for i, h := range locator {
		out[i] = chainhash.Hash(h)
	}
	return out
}
