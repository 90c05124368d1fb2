package blockrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/chainindex/internal/index/errs"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// requestTimeout bounds how long PeerSource waits for a peer to answer a
// getdata request before giving up on that block.
const requestTimeout = 30 * time.Second

// PeerSource issues getdata(MSG_BLOCK, ...) requests to a connected peer over
// the real Bitcoin wire protocol and stitches the (out-of-order) responses
// back into the caller's requested order.
type PeerSource struct {
	mu      sync.Mutex
	pending map[chainhash.Hash]chan *wire.MsgBlock
	peer    *peer.Peer
}

// NewPeerSource wraps an already-connected peer.Peer. The caller's
// peer.Config must route OnBlock through OnBlockReceived for pending
// requests to resolve.
func NewPeerSource(p *peer.Peer) *PeerSource {
	return &PeerSource{
		pending: make(map[chainhash.Hash]chan *wire.MsgBlock),
		peer:    p,
	}
}

// OnBlockReceived delivers an inbound MSG_BLOCK payload to whichever
// GetBlocks call is waiting on it. Wire this into peer.MessageListeners.OnBlock.
func (s *PeerSource) OnBlockReceived(block *wire.MsgBlock) {
	hash := block.BlockHash()
	s.mu.Lock()
	ch, ok := s.pending[hash]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- block:
	default:
	}
}

// GetBlocks implements Repository, requesting each hash via getdata and
// waiting for the matching block to arrive, preserving input order.
func (s *PeerSource) GetBlocks(ctx context.Context, hashes []model.Hash) ([]model.Block, error) {
	blocks := make([]model.Block, 0, len(hashes))
	for _, h := range hashes {
		block, err := s.getOne(ctx, h)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (s *PeerSource) getOne(ctx context.Context, h model.Hash) (model.Block, error) {
	if s.peer == nil || !s.peer.Connected() {
		return model.Block{}, fmt.Errorf("%w: no connected peer", errs.ErrPeerDisconnected)
	}

	chainHash := chainhash.Hash(h)
	ch := make(chan *wire.MsgBlock, 1)

	s.mu.Lock()
	s.pending[chainHash] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, chainHash)
		s.mu.Unlock()
	}()

	getData := wire.NewMsgGetData()
	if err := getData.AddInvVect(wire.NewInvVect(wire.InvTypeBlock, &chainHash)); err != nil {
		return model.Block{}, fmt.Errorf("blockrepo: build getdata for %s: %w", h, err)
	}
	s.peer.QueueMessage(getData, nil)

	timer := time.NewTimer(requestTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return model.Block{}, ctx.Err()
	case <-timer.C:
		return model.Block{}, fmt.Errorf("%w: timed out waiting for block %s", errs.ErrPeerDisconnected, h)
	case msg := <-ch:
		return convertWireBlock(msg, h), nil
	}
}

func convertWireBlock(msg *wire.MsgBlock, hash model.Hash) model.Block {
	txs := make([]model.Transaction, 0, len(msg.Transactions))
	for _, tx := range msg.Transactions {
		txs = append(txs, convertWireTx(tx))
	}
	return model.Block{
		Header: model.Header{
			Hash:      hash,
			PrevHash:  model.Hash(msg.Header.PrevBlock),
			Timestamp: msg.Header.Timestamp,
			TxCount:   uint32(len(msg.Transactions)),
		},
		Transactions: txs,
	}
}

func convertWireTx(tx *wire.MsgTx) model.Transaction {
	txHash := tx.TxHash()
	inputs := make([]model.TxInput, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		inputs = append(inputs, model.TxInput{
			PrevTxID: model.Hash(in.PreviousOutPoint.Hash),
			PrevVout: in.PreviousOutPoint.Index,
			Script:   fmt.Sprintf("%x", in.SignatureScript),
		})
	}
	outputs := make([]model.TxOutput, 0, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outputs = append(outputs, model.TxOutput{
			Vout:   uint32(i),
			Value:  out.Value,
			Script: fmt.Sprintf("%x", out.PkScript),
		})
	}
	return model.Transaction{
		TxID:    model.Hash(txHash),
		Inputs:  inputs,
		Outputs: outputs,
	}
}

var _ Repository = (*PeerSource)(nil)
