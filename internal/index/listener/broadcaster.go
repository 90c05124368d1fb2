package listener

import (
	"context"
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/clock"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/queue"
)

// BroadcastMessage is the payload of the broadcast queue (spec.md §4.H).
// The attempt counter is not carried here: queue.Message[T].Attempts is
// already incremented by the queue on every redelivery, so Attempts-1 serves
// as the zero-indexed attempt number without the payload needing a mutable
// Tried field.
type BroadcastMessage struct {
	TxID model.Hash
	Raw  []byte
}

// rebroadcastDelays are the offsets a broadcast is rescheduled at when it
// hasn't been seen in mempool yet (spec.md §4.G, §8 property 5). Once the
// attempt index runs past the end of this slice the message dies.
var rebroadcastDelays = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	1 * time.Hour,
	6 * time.Hour,
	24 * time.Hour,
}

// peerWaitBackoff is the wait sequence between checks of connected peer
// count before an inv can go out (spec.md §4.G). The last value repeats
// once the sequence is exhausted.
var peerWaitBackoff = []time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	300 * time.Millisecond,
	1000 * time.Millisecond,
	2000 * time.Millisecond,
	3000 * time.Millisecond,
	6000 * time.Millisecond,
	12000 * time.Millisecond,
}

const minBroadcastPeers = 2

// Broadcaster consumes the broadcast queue and reliably announces locally
// submitted transactions to connected peers, rescheduling those that never
// show up in mempool and suppressing ones the network has rejected.
type Broadcaster struct {
	logger       *zap.Logger
	queue        queue.Queue[BroadcastMessage]
	peers        PeerGroup
	rejects      *RejectStore
	confirmed    *ConfirmationChecker
	broadcasting *broadcastingSet
	metrics      Metrics
	sleep        func(context.Context, time.Duration) error
}

// NewBroadcaster constructs a Broadcaster. broadcasting is shared with the
// inbound Handlers, which answers getdata(MSG_TX) requests out of the same
// table and evicts entries on mempool-arrival inv.
func NewBroadcaster(q queue.Queue[BroadcastMessage], peers PeerGroup, rejects *RejectStore, confirmed *ConfirmationChecker, broadcasting *broadcastingSet, metrics Metrics, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		logger:       logger.Named("broadcaster"),
		queue:        q,
		peers:        peers,
		rejects:      rejects,
		confirmed:    confirmed,
		broadcasting: broadcasting,
		metrics:      metrics,
		sleep:        clock.SleepWithContext,
	}
}

// Submit enqueues a transaction for outbound broadcast at attempt zero.
func (b *Broadcaster) Submit(ctx context.Context, msg BroadcastMessage) error {
	return b.queue.Send(ctx, msg)
}

// Run drains the broadcast queue until ctx is canceled.
func (b *Broadcaster) Run(ctx context.Context, visibilityTimeout time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delivery, err := b.queue.Receive(ctx, visibilityTimeout)
		if err != nil {
			b.logger.Error("broadcast queue receive failed", zap.Error(err))
			if sleepErr := b.sleep(ctx, time.Second); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		if delivery == nil {
			if sleepErr := b.sleep(ctx, time.Second); sleepErr != nil {
				return sleepErr
			}
			continue
		}

		if err := b.process(ctx, delivery); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("broadcast attempt failed, leaving for redelivery",
				zap.String("tx_id", delivery.Payload.TxID.String()), zap.Error(err))
		}
	}
}

func (b *Broadcaster) process(ctx context.Context, delivery *queue.Message[BroadcastMessage]) (err error) {
	started := time.Now()
	defer func() { b.metrics.ObserveBroadcast(err, started) }()

	txid := delivery.Payload.TxID
	logger := b.logger.With(zap.String("tx_id", txid.String()))

	rejected, err := b.rejects.IsRejected(ctx, txid)
	if err != nil {
		return err
	}
	if rejected {
		logger.Debug("tx has a terminal reject, dropping from broadcast queue")
		return b.queue.Complete(ctx, delivery.ID)
	}

	confirmed, err := b.confirmed.IsConfirmed(ctx, txid)
	if err != nil {
		return err
	}
	if confirmed {
		logger.Debug("tx already confirmed on current chain, dropping from broadcast queue")
		return b.queue.Complete(ctx, delivery.ID)
	}

	b.broadcasting.Add(txid, delivery.Payload.Raw)

	if err := b.waitForPeers(ctx); err != nil {
		return err
	}

	b.peers.Broadcast(invMessage(txid))
	logger.Info("broadcast inv sent")

	return b.reschedule(ctx, delivery)
}

func (b *Broadcaster) waitForPeers(ctx context.Context) error {
	attempt := 0
	for b.peers.ConnectedCount() < minBroadcastPeers {
		delay := peerWaitBackoff[attempt]
		if attempt < len(peerWaitBackoff)-1 {
			attempt++
		}
		if err := b.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broadcaster) reschedule(ctx context.Context, delivery *queue.Message[BroadcastMessage]) error {
	attemptIndex := delivery.Attempts - 1
	if attemptIndex < 0 {
		attemptIndex = 0
	}
	if attemptIndex >= len(rebroadcastDelays) {
		b.logger.Info("broadcast retries exhausted, letting message die",
			zap.String("tx_id", delivery.Payload.TxID.String()))
		return b.queue.Complete(ctx, delivery.ID)
	}
	return b.queue.RescheduleIn(ctx, delivery.ID, rebroadcastDelays[attemptIndex])
}

// invMessage builds a single-entry inv announcing a transaction.
func invMessage(txid model.Hash) *wire.MsgInv {
	inv := wire.NewMsgInv()
	hash := chainhash.Hash(txid)
	_ = inv.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &hash))
	return inv
}
