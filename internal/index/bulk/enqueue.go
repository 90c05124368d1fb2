package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/errs"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// enqueue leases the lock blob and walks the chain in block_granularity
// steps, emitting one BlockRange message per index task once the running
// transaction estimate crosses transactions_per_work. If the lease is held
// elsewhere, enqueue is skipped entirely and the caller proceeds straight to
// the dequeue phase — the bulk indexer's only cross-process coordination
// (spec.md §4.F "concurrency-safe restart").
func (idx *Indexer) enqueue(ctx context.Context) error {
	started := time.Now()
	err := idx.runEnqueue(ctx)
	idx.metrics.ObserveEnqueue(err, started)
	return err
}

func (idx *Indexer) runEnqueue(ctx context.Context) error {
	if err := idx.blobs.Acquire(ctx, lockBlobName, idx.owner, idx.cfg.LockLeaseTTL); err != nil {
		if errors.Is(err, errs.ErrLeaseHeldElsewhere) {
			idx.logger.Info("lock blob held elsewhere, skipping enqueue phase")
			return nil
		}
		return fmt.Errorf("acquire lock blob: %w", err)
	}
	defer func() {
		if releaseErr := idx.blobs.Release(ctx, lockBlobName, idx.owner); releaseErr != nil {
			idx.logger.Warn("release lock blob failed", zap.Error(releaseErr))
		}
	}()

	if err := idx.blobs.Put(ctx, lockBlobName, []byte(enqueuingBody)); err != nil {
		return fmt.Errorf("write enqueuing marker: %w", err)
	}

	tip := idx.chain.Tip()
	var (
		windowStart uint32
		cumul       uint64
	)

	for height := uint32(0); height+idx.cfg.BlockGranularity-1 <= tip.Height; height += idx.cfg.BlockGranularity {
		header, ok := idx.chain.GetByHeight(height)
		if !ok {
			break
		}
		blocks, err := idx.repository.GetBlocks(ctx, []model.Hash{header.Hash})
		if err != nil {
			return fmt.Errorf("sample block at height %d: %w", height, err)
		}
		if len(blocks) == 0 {
			return fmt.Errorf("sample block at height %d not found", height)
		}
		cumul += uint64(len(blocks[0].Transactions)) * uint64(idx.cfg.BlockGranularity)

		if cumul > uint64(idx.cfg.TransactionsPerWork) {
			windowEnd := height + idx.cfg.BlockGranularity - 1
			if err := idx.emitRange(ctx, windowStart, windowEnd); err != nil {
				return err
			}
			windowStart = windowEnd + 1
			cumul = 0
		}
	}

	if windowStart <= tip.Height {
		if err := idx.emitRange(ctx, windowStart, tip.Height); err != nil {
			return err
		}
	}

	locator, err := idx.chain.LocatorOf(tip.Hash)
	if err != nil {
		return fmt.Errorf("locator for tip %s: %w", tip.Hash, err)
	}
	if err := idx.blobs.Put(ctx, lockBlobName, []byte(locator.Encode())); err != nil {
		return fmt.Errorf("write tip locator: %w", err)
	}
	return nil
}

// emitRange sends [from, to] to every registered task whose checkpoint has
// not already advanced past it, so a restart that re-walks an already
// indexed portion of the chain does not re-enqueue it.
func (idx *Indexer) emitRange(ctx context.Context, from, to uint32) error {
	for name := range idx.tasks {
		cp, err := idx.checkpoints.Get(ctx, string(name), idx.chain)
		if err != nil {
			return fmt.Errorf("read checkpoint %s: %w", name, err)
		}
		if cp.Height > to {
			continue
		}
		msg := model.WorkMessage{Task: name, Range: model.BlockRange{From: from, To: to}}
		if err := idx.work.Send(ctx, msg); err != nil {
			return fmt.Errorf("enqueue %s range [%d,%d]: %w", name, from, to, err)
		}
	}
	return nil
}
