package task

import "time"

const (
	rowBatchFlushSize     = 1000
	rowBatchFlushInterval = 5 * time.Second
	rowBatchRateLimit     = 50
)
