package store

//go:generate mockgen -source=clickhouse.go -destination=metrics_mock.go -package=store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Metrics observes one store operation, matching the shape of
// internal/utxo/repository/clickhouse.Metrics so the same Prometheus
// collector style extends naturally to this store.
type Metrics interface {
	Observe(operation, indexName string, err error, started time.Time)
}

// ClickHouseStore implements Store over a single wide table, partitioned by
// (index_name, partition), grounded directly on
// internal/utxo/repository/clickhouse.Repository's connection and batch-insert
// pattern.
type ClickHouseStore struct {
	conn    clickhouse.Conn
	metrics Metrics
}

// NewClickHouseStore opens a ClickHouse connection from dsn.
func NewClickHouseStore(dsn string, metrics Metrics) (*ClickHouseStore, error) {
	if dsn == "" {
		return nil, errors.New("clickhouse dsn is required")
	}

	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	return &ClickHouseStore{conn: conn, metrics: metrics}, nil
}

// UpsertRows implements Store.
func (s *ClickHouseStore) UpsertRows(ctx context.Context, indexName string, rows []Row) error {
	start := time.Now()
	var err error
	defer func() {
		s.metrics.Observe("upsert_rows", indexName, err, start)
	}()

	if len(rows) == 0 {
		return nil
	}

	const query = `
INSERT INTO index_rows (
	index_name,
	partition,
	key,
	columns,
	updated_at
) VALUES`

	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare index_rows batch: %w", err)
	}

	for _, row := range rows {
		encoded, encodeErr := json.Marshal(row.Columns)
		if encodeErr != nil {
			err = fmt.Errorf("encode columns for %s/%s: %w", row.Partition, row.Key, encodeErr)
			return err
		}
		if err = batch.Append(
			indexName,
			row.Partition,
			row.Key,
			string(encoded),
			time.Now(),
		); err != nil {
			return fmt.Errorf("append row %s/%s: %w", row.Partition, row.Key, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert index_rows: %w", err)
	}
	return nil
}

// GetRow implements Store. ClickHouse's ReplacingMergeTree semantics mean
// the "latest" row for a key may not have merged yet; callers needing
// guaranteed freshness should read with FINAL, which the query below does.
func (s *ClickHouseStore) GetRow(ctx context.Context, indexName, partition, key string) (Row, bool, error) {
	start := time.Now()
	var err error
	defer func() {
		s.metrics.Observe("get_row", indexName, err, start)
	}()

	const query = `
SELECT columns FROM index_rows FINAL
WHERE index_name = ? AND partition = ? AND key = ?
LIMIT 1`

	rows, err := s.conn.Query(ctx, query, indexName, partition, key)
	if err != nil {
		return Row{}, false, fmt.Errorf("query row %s/%s: %w", partition, key, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		return Row{}, false, nil
	}

	var encoded string
	if err = rows.Scan(&encoded); err != nil {
		return Row{}, false, fmt.Errorf("scan row %s/%s: %w", partition, key, err)
	}
	if err = rows.Err(); err != nil {
		return Row{}, false, fmt.Errorf("iterate row %s/%s: %w", partition, key, err)
	}

	var columns map[string]any
	if err = json.Unmarshal([]byte(encoded), &columns); err != nil {
		return Row{}, false, fmt.Errorf("decode columns for %s/%s: %w", partition, key, err)
	}

	return Row{Partition: partition, Key: key, Columns: columns}, true, nil
}

// ScanRange implements Store.
func (s *ClickHouseStore) ScanRange(ctx context.Context, indexName, partition, fromKey, toKey string) ([]Row, error) {
	start := time.Now()
	var err error
	defer func() {
		s.metrics.Observe("scan_range", indexName, err, start)
	}()

	const query = `
SELECT key, columns FROM index_rows FINAL
WHERE index_name = ? AND partition = ? AND key >= ? AND key <= ?
ORDER BY key ASC`

	rows, err := s.conn.Query(ctx, query, indexName, partition, fromKey, toKey)
	if err != nil {
		return nil, fmt.Errorf("scan range %s [%s,%s]: %w", partition, fromKey, toKey, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	var out []Row
	for rows.Next() {
		var key, encoded string
		if err = rows.Scan(&key, &encoded); err != nil {
			return nil, fmt.Errorf("scan range row: %w", err)
		}
		var columns map[string]any
		if err = json.Unmarshal([]byte(encoded), &columns); err != nil {
			return nil, fmt.Errorf("decode columns for %s: %w", key, err)
		}
		out = append(out, Row{Partition: partition, Key: key, Columns: columns})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan range: %w", err)
	}
	return out, nil
}

var _ Store = (*ClickHouseStore)(nil)
