// Package store provides the wide-column index store spec.md §6 requires:
// upsert row by (partition, row) key, read one, scan range. All four index
// tasks and the reject table write through it.
package store

import "context"

// Row is one wide-column record. Columns are opaque to the store itself —
// tasks agree on a schema per index by convention, the way the teacher's
// ClickHouse repository agrees on one schema per table.
type Row struct {
	Partition string
	Key       string
	Columns   map[string]any
}

// Store is the wide-column index store port.
type Store interface {
	// UpsertRows writes rows, replacing any existing row sharing the same
	// (Partition, Key). Row identity is derived from block/transaction
	// hash by callers, which is what makes redelivery idempotent.
	UpsertRows(ctx context.Context, indexName string, rows []Row) error

	// GetRow reads a single row by key, ok=false if absent.
	GetRow(ctx context.Context, indexName, partition, key string) (Row, bool, error)

	// ScanRange reads rows in a partition whose key falls in [fromKey, toKey].
	ScanRange(ctx context.Context, indexName, partition, fromKey, toKey string) ([]Row, error)
}
