package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// CheckpointStore wraps a Store to provide the named-checkpoint semantics
// spec.md §4.A describes: a serialized locator per checkpoint name, advanced
// only when the new locator's fork point against the current chain is at a
// height greater than or equal to what is already recorded, with a rewind
// below that height permitted only while holding the lease.
type CheckpointStore struct {
	blobs Store
}

// NewCheckpointStore wraps blobs for checkpoint use.
func NewCheckpointStore(blobs Store) *CheckpointStore {
	return &CheckpointStore{blobs: blobs}
}

func checkpointBlobName(name string) string {
	return "checkpoints/" + name
}

// Get reads the current checkpoint for name, resolving its height as the
// fork point of the stored locator against chain. A checkpoint that has
// never been written reads back as height 0 with a nil locator — "created
// on first use" per spec.md §3.
func (s *CheckpointStore) Get(ctx context.Context, name string, chain *headerchain.Chain) (model.Checkpoint, error) {
	data, err := s.blobs.Get(ctx, checkpointBlobName(name))
	if errors.Is(err, ErrNotFound) {
		return model.Checkpoint{Name: name}, nil
	}
	if err != nil {
		return model.Checkpoint{}, err
	}
	locator, err := model.DecodeLocator(string(data))
	if err != nil {
		return model.Checkpoint{}, fmt.Errorf("blobstore: decode checkpoint %s: %w", name, err)
	}

	var height uint32
	if len(locator) > 0 {
		fork, ok := chain.FindFork(locator)
		if !ok {
			return model.Checkpoint{}, fmt.Errorf("blobstore: checkpoint %s locator shares no ancestor with chain", name)
		}
		height = fork.Height
	}
	return model.Checkpoint{Name: name, Height: height, Locator: locator}, nil
}

// Advance writes a new locator for name, computing its fork height against
// chain. The write is rejected unless that fork height is at or above the
// currently recorded checkpoint height, unless owner currently holds the
// lease (a rewind).
func (s *CheckpointStore) Advance(ctx context.Context, owner, name string, locator model.BlockLocator, chain *headerchain.Chain) error {
	current, err := s.Get(ctx, name, chain)
	if err != nil {
		return err
	}

	fork, ok := chain.FindFork(locator)
	if !ok {
		return fmt.Errorf("blobstore: advance checkpoint %s: new locator shares no ancestor with chain", name)
	}

	if fork.Height < current.Height {
		if err := s.blobs.Renew(ctx, checkpointLeaseName(name), owner, time.Minute); err != nil {
			return fmt.Errorf("blobstore: rewind checkpoint %s below height %d requires an active lease: %w", name, current.Height, err)
		}
	}
	return s.blobs.Put(ctx, checkpointBlobName(name), []byte(locator.Encode()))
}

func checkpointLeaseName(name string) string {
	return "checkpoints/" + name
}

// Lease acquires the exclusive write lease for a checkpoint, required to
// rewind it below its currently recorded height.
func (s *CheckpointStore) Lease(ctx context.Context, owner, name string, ttl time.Duration) error {
	return s.blobs.Acquire(ctx, checkpointLeaseName(name), owner, ttl)
}

// Release gives up owner's lease on the named checkpoint.
func (s *CheckpointStore) Release(ctx context.Context, owner, name string) error {
	return s.blobs.Release(ctx, checkpointLeaseName(name), owner)
}
