// Package bulk implements the Bulk Indexer: an enqueue phase that
// partitions the chain into ranges of work and a dequeue phase that drains
// them, coordinated across restarts by a single leased lock blob (spec.md
// §4.F).
package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/clock"
	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/queue"
	"github.com/goodnatureofminers/chainindex/internal/index/task"
)

// Indexer runs the enqueue and dequeue phases in sequence, as one process
// invocation (spec.md §4.F: "after the walk, emit a final range ... write
// the tip locator ... signalling enqueue completion").
type Indexer struct {
	logger      *zap.Logger
	owner       string
	cfg         Config
	blobs       blobstore.Store
	checkpoints *blobstore.CheckpointStore
	chain       *headerchain.Chain
	repository  blockrepo.Repository
	work        queue.Queue[model.WorkMessage]
	tasks       map[model.IndexTask]task.Task
	metrics     Metrics
	sleep       func(context.Context, time.Duration) error
}

// NewIndexer constructs a bulk Indexer. tasks must contain an entry for
// every model.IndexTask the deployment runs; metrics must be non-nil.
func NewIndexer(
	owner string,
	cfg Config,
	blobs blobstore.Store,
	checkpoints *blobstore.CheckpointStore,
	chain *headerchain.Chain,
	repository blockrepo.Repository,
	work queue.Queue[model.WorkMessage],
	tasks map[model.IndexTask]task.Task,
	metrics Metrics,
	logger *zap.Logger,
) (*Indexer, error) {
	if metrics == nil {
		return nil, errors.New("bulk: metrics is required")
	}
	if len(tasks) == 0 {
		return nil, errors.New("bulk: at least one index task is required")
	}
	return &Indexer{
		logger:      logger.Named("bulk_indexer").With(zap.String("owner", owner)),
		owner:       owner,
		cfg:         cfg.withDefaults(),
		blobs:       blobs,
		checkpoints: checkpoints,
		chain:       chain,
		repository:  repository,
		work:        work,
		tasks:       tasks,
		metrics:     metrics,
		sleep:       clock.SleepWithContext,
	}, nil
}

// Run executes the enqueue phase (skipping it transparently if another
// instance already holds the lock blob's lease) followed by the dequeue
// phase, returning the count of messages this invocation processed.
func (idx *Indexer) Run(ctx context.Context) (int, error) {
	if err := idx.enqueue(ctx); err != nil {
		return 0, fmt.Errorf("bulk: enqueue phase: %w", err)
	}
	processed, err := idx.dequeue(ctx)
	if err != nil {
		return processed, fmt.Errorf("bulk: dequeue phase: %w", err)
	}
	return processed, nil
}
