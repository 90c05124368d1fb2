package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/errs"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// dequeue runs the indefinite receive loop spec.md §4.F describes: a
// 1-second poll, terminating once the lock blob reads back as a completed
// tip locator (rather than "Enqueuing") and every checkpoint has been
// advanced to it. Returns the count of messages processed before
// termination or a fatal error.
func (idx *Indexer) dequeue(ctx context.Context) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		msg, err := idx.work.Receive(ctx, idx.cfg.VisibilityTimeout)
		if err != nil {
			idx.logger.Warn("receive failed, retrying next poll", zap.Error(err))
			if sleepErr := idx.sleep(ctx, dequeuePollInterval); sleepErr != nil {
				return processed, sleepErr
			}
			continue
		}

		if msg == nil {
			done, err := idx.checkEnqueueCompletion(ctx)
			if err != nil {
				return processed, err
			}
			if done {
				return processed, nil
			}
			if sleepErr := idx.sleep(ctx, dequeuePollInterval); sleepErr != nil {
				return processed, sleepErr
			}
			continue
		}

		if err := idx.processMessage(ctx, msg.Payload); err != nil {
			if errors.Is(err, errs.ErrChainReorgDeeperThanRange) {
				idx.logger.Error("range abandoned, chain reorganized past fetcher start",
					zap.String("task", string(msg.Payload.Task)),
					zap.Uint32("from", msg.Payload.Range.From),
					zap.Uint32("to", msg.Payload.Range.To),
					zap.Error(err))
				if completeErr := idx.work.Complete(ctx, msg.ID); completeErr != nil {
					return processed, completeErr
				}
				processed++
				continue
			}
			idx.logger.Error("index task failed, leaving message for redelivery",
				zap.String("task", string(msg.Payload.Task)), zap.Error(err))
			continue
		}

		if err := idx.work.Complete(ctx, msg.ID); err != nil {
			return processed, fmt.Errorf("complete message %d: %w", msg.ID, err)
		}
		processed++
	}
}

// checkEnqueueCompletion reads the lock blob on an empty poll. A body of
// "Enqueuing" means the enqueuer is still walking the chain, so dequeue
// keeps looping. Any other body is the authoritative tip locator: every
// checkpoint advances to it and dequeue terminates.
func (idx *Indexer) checkEnqueueCompletion(ctx context.Context) (bool, error) {
	body, err := idx.blobs.Get(ctx, lockBlobName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read lock blob: %w", err)
	}
	if string(body) == enqueuingBody {
		return false, nil
	}

	locator, err := model.DecodeLocator(string(body))
	if err != nil {
		return false, fmt.Errorf("decode tip locator: %w", err)
	}
	for name := range idx.tasks {
		if err := idx.checkpoints.Advance(ctx, idx.owner, string(name), locator, idx.chain); err != nil {
			return false, fmt.Errorf("advance checkpoint %s to tip: %w", name, err)
		}
	}
	return true, nil
}

func (idx *Indexer) processMessage(ctx context.Context, payload model.WorkMessage) error {
	started := time.Now()
	err := idx.runTask(ctx, payload)
	idx.metrics.ObserveDequeueMessage(err, started)
	return err
}

func (idx *Indexer) runTask(ctx context.Context, payload model.WorkMessage) error {
	t, ok := idx.tasks[payload.Task]
	if !ok {
		return fmt.Errorf("no task registered for %s", payload.Task)
	}
	t.SetSaveProgress(false)
	fetcher := blockrepo.NewBlockFetcher(idx.chain, idx.repository, payload.Range.From, payload.Range.To)
	return t.Index(ctx, fetcher)
}
