package bulk

import "time"

// Config is the bulk indexer's operator-facing configuration (spec.md §6).
type Config struct {
	BlockGranularity    uint32
	TransactionsPerWork uint32
	LockLeaseTTL        time.Duration
	VisibilityTimeout   time.Duration
}

// DefaultConfig returns spec.md §4.F's documented defaults.
func DefaultConfig() Config {
	return Config{
		BlockGranularity:    defaultBlockGranularity,
		TransactionsPerWork: defaultTransactionsPerWork,
		LockLeaseTTL:        lockLeaseTTL,
		VisibilityTimeout:   visibilityTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.BlockGranularity == 0 {
		c.BlockGranularity = defaultBlockGranularity
	}
	if c.TransactionsPerWork == 0 {
		c.TransactionsPerWork = defaultTransactionsPerWork
	}
	if c.LockLeaseTTL == 0 {
		c.LockLeaseTTL = lockLeaseTTL
	}
	if c.VisibilityTimeout == 0 {
		c.VisibilityTimeout = visibilityTimeout
	}
	return c
}
