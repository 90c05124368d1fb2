package listener

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/scheduler"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
	"github.com/goodnatureofminers/chainindex/internal/index/task"
)

// unconfirmedHeight marks a transactions-index row written from a loose
// mempool tx rather than a confirmed block; the balances/wallets indexes
// never see these, only the transactions index does.
const unconfirmedHeight uint32 = 0

// Handlers dispatches inbound peer messages per spec.md §4.G. Each case
// hands its work off rather than running on the caller's (the receiver
// loop's) goroutine; work that touches the header chain or the per-block
// indexes is serialized on chainScheduler, everything else runs on its own
// tracked goroutine so Wait can join outstanding work at shutdown (spec.md
// §9 Design Note 3 — explicit task-handle ownership instead of bare `go`).
type Handlers struct {
	logger  *zap.Logger
	store   store.Store
	coin    string
	network string

	chain          *headerchain.Chain
	chainScheduler *scheduler.Scheduler
	headerSync     *HeaderSync

	broadcasting *broadcastingSet
	knownInvs    *hashSet
	rejects      *RejectStore
	events       EventBus
	metrics      Metrics

	wg sync.WaitGroup
}

// NewHandlers constructs Handlers wired to the given chain, stores and
// event bus. broadcasting is created by NewSession and shared with the
// Broadcaster; chainScheduler is created and stopped by the caller.
func NewHandlers(coin, network string, st store.Store, chain *headerchain.Chain, chainScheduler *scheduler.Scheduler, headerSync *HeaderSync, broadcasting *broadcastingSet, rejects *RejectStore, events EventBus, metrics Metrics, logger *zap.Logger) *Handlers {
	return &Handlers{
		logger:         logger.Named("handlers"),
		store:          st,
		coin:           coin,
		network:        network,
		chain:          chain,
		chainScheduler: chainScheduler,
		headerSync:     headerSync,
		broadcasting:   broadcasting,
		knownInvs:      newHashSet(),
		rejects:        rejects,
		events:         events,
		metrics:        metrics,
	}
}

// track runs fn on a new goroutine owned by this Handlers, joinable by Wait.
func (h *Handlers) track(fn func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn()
	}()
}

// Wait blocks until every tracked goroutine this Handlers spawned has
// returned. Call during peer shutdown.
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// HandleInv processes an inv message: items already in Broadcasting are
// mempool arrivals and get evicted; items not yet in KnownInvs are recorded
// and requested via getdata.
func (h *Handlers) HandleInv(conn PeerConn, msg *wire.MsgInv) {
	var toRequest []*wire.InvVect
	for _, item := range msg.InvList {
		hash := model.Hash(item.Hash)
		if item.Type == wire.InvTypeTx {
			h.broadcasting.Evict(hash)
		}
		if !h.knownInvs.Contains(hash) {
			h.knownInvs.Add(hash)
			toRequest = append(toRequest, item)
		}
	}
	if len(toRequest) == 0 {
		return
	}

	getData := wire.NewMsgGetData()
	for _, item := range toRequest {
		if err := getData.AddInvVect(item); err != nil {
			h.logger.Warn("getdata message full, dropping remaining inv items", zap.Error(err))
			break
		}
	}
	conn.QueueMessage(getData, nil)
}

// HandleTx indexes a loose transaction and publishes a new-transaction
// event. Indexing and publication happen on a tracked background goroutine;
// ordering against other inbound messages is not guaranteed.
func (h *Handlers) HandleTx(ctx context.Context, tx *wire.MsgTx) {
	h.track(func() {
		started := time.Now()
		var err error
		defer func() { h.metrics.ObserveTxIndexed(err, started) }()

		txModel := convertWireTx(tx)
		row := task.TransactionRow(h.coin, h.network, unconfirmedHeight, txModel)
		if err = h.store.UpsertRows(ctx, transactionsIndexName, []store.Row{row}); err != nil {
			h.logger.Error("index loose transaction failed", zap.String("tx_id", txModel.TxID.String()), zap.Error(err))
			return
		}
		if err = h.events.PublishNewTransaction(ctx, txModel.TxID); err != nil {
			h.logger.Error("publish new-transaction event failed", zap.String("tx_id", txModel.TxID.String()), zap.Error(err))
		}
	})
}

// HandleBlock resynchronizes the header chain and indexes the block, both
// on the chain scheduler so neither interleaves with other chain mutation
// (spec.md §4.G "Scheduler partitioning"). The resync runs first because
// the block row is keyed by height, which only exists once the header is
// connected; indexing a block whose header never connects would leave an
// orphaned row under a guessed height, so indexing waits on the sync result
// rather than racing it as a fully independent job. If the header still
// isn't in the chain afterward, the block is dropped — a later inv+headers
// round will redeliver it.
func (h *Handlers) HandleBlock(ctx context.Context, conn PeerConn, block *wire.MsgBlock) {
	h.track(func() {
		identity := convertWireHeader(block)

		syncDone := make(chan struct{})
		var syncErr error
		h.chainScheduler.Submit(func() {
			syncErr = h.headerSync.SynchronizeFrom(ctx, conn)
			close(syncDone)
		})
		<-syncDone

		if syncErr != nil {
			h.logger.Warn("header resync after block failed", zap.Error(syncErr))
		}

		header, onChain := h.chain.GetByHash(identity.Hash)
		if !onChain {
			h.logger.Debug("block header not yet connected, dropping", zap.String("hash", identity.Hash.String()))
			return
		}

		indexDone := make(chan struct{})
		h.chainScheduler.Submit(func() {
			h.indexBlock(ctx, header, block)
			close(indexDone)
		})
		<-indexDone

		if err := h.events.PublishNewBlock(ctx, header); err != nil {
			h.logger.Error("publish new-block event failed", zap.String("hash", header.Hash.String()), zap.Error(err))
		}
	})
}

func (h *Handlers) indexBlock(ctx context.Context, header model.Header, block *wire.MsgBlock) {
	started := time.Now()
	var err error
	defer func() { h.metrics.ObserveBlockIndexed(err, started) }()

	txs := make([]model.Transaction, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		txs = append(txs, convertWireTx(tx))
	}
	domainBlock := model.Block{Header: header, Transactions: txs}

	if err = h.store.UpsertRows(ctx, blocksIndexName, []store.Row{task.BlockRow(h.coin, h.network, domainBlock)}); err != nil {
		h.logger.Error("index block row failed", zap.String("hash", header.Hash.String()), zap.Error(err))
		return
	}

	rows := make([]store.Row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, task.TransactionRow(h.coin, h.network, header.Height, tx))
	}
	if len(rows) == 0 {
		return
	}
	if err = h.store.UpsertRows(ctx, transactionsIndexName, rows); err != nil {
		h.logger.Error("index block transactions failed", zap.String("hash", header.Hash.String()), zap.Error(err))
	}
}

// HandleGetData answers a getdata(MSG_TX) request out of the Broadcasting
// table, removing the entry once served.
func (h *Handlers) HandleGetData(conn PeerConn, msg *wire.MsgGetData) {
	for _, item := range msg.InvList {
		if item.Type != wire.InvTypeTx {
			continue
		}
		raw, ok := h.broadcasting.Take(model.Hash(item.Hash))
		if !ok {
			continue
		}
		tx := &wire.MsgTx{}
		if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
			h.logger.Error("deserialize raw broadcast tx failed", zap.Error(err))
			continue
		}
		conn.QueueMessage(tx, nil)
	}
}

// HandleReject logs the rejection, persists a terminal reject record for
// any non-duplicate code, and unconditionally evicts the tx from
// Broadcasting.
func (h *Handlers) HandleReject(ctx context.Context, msg *wire.MsgReject) {
	txid := model.Hash(msg.Hash)
	h.logger.Info("tx rejected by peer",
		zap.String("tx_id", txid.String()), zap.Uint8("code", uint8(msg.Code)), zap.String("reason", msg.Reason))

	if err := h.rejects.Persist(ctx, txid, uint8(msg.Code)); err != nil {
		h.logger.Error("persist reject record failed", zap.String("tx_id", txid.String()), zap.Error(err))
	}
	h.broadcasting.Evict(txid)
}

func convertWireHeader(block *wire.MsgBlock) model.Header {
	return model.Header{
		Hash:      model.Hash(block.BlockHash()),
		PrevHash:  model.Hash(block.Header.PrevBlock),
		Timestamp: block.Header.Timestamp,
		TxCount:   uint32(len(block.Transactions)),
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
