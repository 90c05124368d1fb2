package task

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

// Transactions writes one row per transaction: containing block height,
// input/output counts, and total output value.
type Transactions struct {
	base
}

// NewTransactions constructs the Transactions index task.
func NewTransactions(coin, network, owner string, st store.Store, checkpoints *blobstore.CheckpointStore, chain *headerchain.Chain, logger *zap.Logger) *Transactions {
	return &Transactions{base: base{
		name:        model.IndexTaskTransactions,
		coin:        coin,
		network:     network,
		store:       st,
		checkpoints: checkpoints,
		chain:       chain,
		owner:       owner,
		logger:      logger.Named("transactions_task"),
	}}
}

// Index implements Task.
func (t *Transactions) Index(ctx context.Context, fetcher *blockrepo.BlockFetcher) error {
	return t.runIndexed(ctx, fetcher, func(block model.Block) []store.Row {
		rows := make([]store.Row, 0, len(block.Transactions))
		for _, tx := range block.Transactions {
			rows = append(rows, TransactionRow(t.coin, t.network, block.Header.Height, tx))
		}
		return rows
	})
}

// TransactionRow builds the single index row a transaction contributes to
// the transactions index. Exported so the live listener can write the same
// row shape for a transaction it indexes as it streams in, outside of a
// BlockFetcher-driven range.
func TransactionRow(coin, network string, height uint32, tx model.Transaction) store.Row {
	var total int64
	for _, out := range tx.Outputs {
		total += out.Value
	}
	return store.Row{
		Partition: fmt.Sprintf("%s:%s", coin, network),
		Key:       tx.TxID.String(),
		Columns: map[string]any{
			"height":       height,
			"input_count":  len(tx.Inputs),
			"output_count": len(tx.Outputs),
			"total_value":  total,
		},
	}
}

var _ Task = (*Transactions)(nil)
