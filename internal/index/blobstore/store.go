// Package blobstore defines the leasable named-blob port used by the
// Checkpoint Store and the block cache, plus a filesystem-backed
// implementation. No object-storage SDK appears anywhere in the retrieved
// example pack, so the filesystem body stands in for a real client; the
// Store interface is the part meant to be load-bearing.
package blobstore

import (
	"context"
	"time"
)

// Store holds named byte blobs and an optional exclusive lease per name.
type Store interface {
	// Get returns the current contents of name, or ErrNotFound if it has
	// never been written.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes name unconditionally, overwriting any previous value.
	// Put does not require a lease; callers that need advance-only or
	// exclusive semantics acquire one first and check it in application
	// logic (see CheckpointStore).
	Put(ctx context.Context, name string, value []byte) error

	// Acquire grants an exclusive, time-bounded lease on name to owner. It
	// fails with errs.ErrLeaseHeldElsewhere if a live lease belongs to a
	// different owner.
	Acquire(ctx context.Context, name, owner string, ttl time.Duration) error

	// Renew extends an already-held lease. It fails if owner does not
	// currently hold the lease.
	Renew(ctx context.Context, name, owner string, ttl time.Duration) error

	// Release gives up owner's lease on name, if held.
	Release(ctx context.Context, name, owner string) error
}
