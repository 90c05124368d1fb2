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

// Blocks writes one row per block: height, hash, timestamp, tx count.
type Blocks struct {
	base
}

// NewBlocks constructs the Blocks index task.
func NewBlocks(coin, network, owner string, st store.Store, checkpoints *blobstore.CheckpointStore, chain *headerchain.Chain, logger *zap.Logger) *Blocks {
	return &Blocks{base: base{
		name:        model.IndexTaskBlocks,
		coin:        coin,
		network:     network,
		store:       st,
		checkpoints: checkpoints,
		chain:       chain,
		owner:       owner,
		logger:      logger.Named("blocks_task"),
	}}
}

// Index implements Task.
func (t *Blocks) Index(ctx context.Context, fetcher *blockrepo.BlockFetcher) error {
	return t.runIndexed(ctx, fetcher, func(block model.Block) []store.Row {
		return []store.Row{BlockRow(t.coin, t.network, block)}
	})
}

// BlockRow builds the single index row a block contributes to the blocks
// index. Exported so the live listener can write the same row shape for a
// block it indexes outside of a BlockFetcher-driven range.
func BlockRow(coin, network string, block model.Block) store.Row {
	return store.Row{
		Partition: fmt.Sprintf("%s:%s", coin, network),
		Key:       fmt.Sprintf("%010d", block.Header.Height),
		Columns: map[string]any{
			"hash":      block.Header.Hash.String(),
			"height":    block.Header.Height,
			"timestamp": block.Header.Timestamp,
			"tx_count":  len(block.Transactions),
		},
	}
}

var _ Task = (*Blocks)(nil)
