package listener

import (
	"context"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/queue"
)

// NewTransactionEvent is published on the NeedIndexNewTransaction topic.
type NewTransactionEvent struct {
	TxID model.Hash
}

// NewBlockEvent is published on the NeedIndexNewBlock topic.
type NewBlockEvent struct {
	Header model.Header
}

// queueEventBus implements EventBus over two instances of the same
// persistent queue used for bulk work (spec.md §6 describes both as
// queue-shaped topics; no separate pub/sub client appears anywhere in the
// retrieved pack).
type queueEventBus struct {
	transactions queue.Queue[NewTransactionEvent]
	blocks       queue.Queue[NewBlockEvent]
}

// NewQueueEventBus wraps the two event-topic queues as an EventBus.
func NewQueueEventBus(transactions queue.Queue[NewTransactionEvent], blocks queue.Queue[NewBlockEvent]) EventBus {
	return &queueEventBus{transactions: transactions, blocks: blocks}
}

func (b *queueEventBus) PublishNewTransaction(ctx context.Context, txid model.Hash) error {
	return b.transactions.Send(ctx, NewTransactionEvent{TxID: txid})
}

func (b *queueEventBus) PublishNewBlock(ctx context.Context, header model.Header) error {
	return b.blocks.Send(ctx, NewBlockEvent{Header: header})
}

var _ EventBus = (*queueEventBus)(nil)
