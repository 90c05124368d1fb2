// Package task implements the four pluggable index task variants —
// Blocks, Transactions, Balances and Wallets — that each consume the blocks
// a BlockFetcher yields and write denormalized rows to the index store.
package task

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/errs"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
	"github.com/goodnatureofminers/chainindex/pkg/batcher"
)

// Task is the polymorphic capability spec.md §3 describes: a save-progress
// toggle and an Index operation driven by a BlockFetcher.
type Task interface {
	Name() model.IndexTask
	SetSaveProgress(enabled bool)
	Index(ctx context.Context, fetcher *blockrepo.BlockFetcher) error
}

// base wires the shared machinery every task variant needs: the store to
// write to, the checkpoint this task advances when SaveProgress is enabled,
// and the chain used to resolve a height into a locator.
type base struct {
	name         model.IndexTask
	coin         string
	network      string
	store        store.Store
	checkpoints  *blobstore.CheckpointStore
	chain        *headerchain.Chain
	owner        string
	saveProgress bool
	logger       *zap.Logger
}

// SetSaveProgress implements Task. Bulk mode runs with this disabled — the
// bulk indexer owns checkpoint advancement once a whole BlockRange's worth
// of messages has drained (spec.md §4.E/§4.F). Live mode enables it so each
// block indexed immediately advances the checkpoint.
func (b *base) SetSaveProgress(enabled bool) {
	b.saveProgress = enabled
}

// Name implements Task.
func (b *base) Name() model.IndexTask {
	return b.name
}

func (b *base) maybeAdvance(ctx context.Context, header model.Header) error {
	if !b.saveProgress {
		return nil
	}
	locator, err := b.chain.LocatorOf(header.Hash)
	if err != nil {
		return fmt.Errorf("task %s: locator for %s: %w", b.name, header.Hash, err)
	}
	if err := b.checkpoints.Advance(ctx, b.owner, string(b.name), locator, b.chain); err != nil {
		return fmt.Errorf("%w: task %s advance checkpoint: %v", errs.ErrIndexTaskFailed, b.name, err)
	}
	return nil
}

// runIndexed drives the shared fetch/batch/advance loop every task variant
// needs; buildRows turns one fetched block into zero or more rows for this
// task's index. Flush failures are logged by the batcher itself (matching
// pkg/batcher's own fire-and-forget semantics) rather than aborting the run;
// a task only fails outright on a fetch, queue-add, or checkpoint error.
func (b *base) runIndexed(ctx context.Context, fetcher *blockrepo.BlockFetcher, buildRows func(model.Block) []store.Row) error {
	batch := batcher.New[store.Row](b.logger, func(ctx context.Context, rows []store.Row) error {
		return b.store.UpsertRows(ctx, string(b.name), rows)
	}, rowBatchFlushSize, rowBatchFlushInterval, rowBatchRateLimit)
	batch.Start(ctx)

	var stopOnce sync.Once
	stop := func() { stopOnce.Do(batch.Stop) }
	defer stop()

	for {
		block, ok, err := fetcher.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		for _, row := range buildRows(block) {
			if err := batch.Add(ctx, row); err != nil {
				return fmt.Errorf("%w: %v", errs.ErrIndexTaskFailed, err)
			}
		}

		if err := b.maybeAdvance(ctx, block.Header); err != nil {
			return err
		}
	}

	stop()
	return nil
}
