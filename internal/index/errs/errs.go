// Package errs defines the sentinel error kinds shared across the indexing
// subsystems, matched with errors.Is against wrapped causes.
package errs

import "errors"

var (
	// ErrStorageUnavailable signals the blob store or index store could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrLeaseHeldElsewhere signals a checkpoint or lock blob lease is held by another owner.
	ErrLeaseHeldElsewhere = errors.New("lease held elsewhere")
	// ErrPeerDisconnected signals the connected peer dropped mid-request.
	ErrPeerDisconnected = errors.New("peer disconnected")
	// ErrChainReorgDeeperThanRange signals a BlockFetcher's start height fell off the chain.
	ErrChainReorgDeeperThanRange = errors.New("chain reorg deeper than range")
	// ErrIndexTaskFailed signals an index task failed partway through a range.
	ErrIndexTaskFailed = errors.New("index task failed")
	// ErrQueueTransient signals a retryable queue failure.
	ErrQueueTransient = errors.New("queue transient error")
	// ErrQueueFatal signals a non-retryable queue failure.
	ErrQueueFatal = errors.New("queue fatal error")
	// ErrRejected signals a peer rejected a broadcast transaction.
	ErrRejected = errors.New("transaction rejected")
)
