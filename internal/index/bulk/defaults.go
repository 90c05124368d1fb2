package bulk

import "time"

const (
	// lockBlobName is the shared lock blob spec.md §6 names: its body is
	// either enqueuingBody while the enqueue phase runs, or a hex-encoded
	// tip locator once enqueue has completed.
	lockBlobName  = "initialindexer/lock"
	enqueuingBody = "Enqueuing"

	defaultBlockGranularity    uint32 = 100
	defaultTransactionsPerWork uint32 = 2_000_000

	lockLeaseTTL        = 5 * time.Minute
	dequeuePollInterval = 1 * time.Second
	visibilityTimeout   = 30 * time.Second
)
