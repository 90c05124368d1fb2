package queue

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteQueue implements Queue[T] over a single SQLite table. Visibility
// timeout is modeled with a visible_at column; Receive atomically claims the
// oldest row whose visible_at has passed and pushes it into the future,
// giving exactly the "receive hides, redelivery on timeout" semantics
// spec.md §4.D/§6 call for without needing a separate broker process.
type SQLiteQueue[T any] struct {
	db        *sql.DB
	tableName string
}

// NewSQLiteQueue opens (creating if necessary) a queue table named
// tableName inside the SQLite database at path.
func NewSQLiteQueue[T any](path, tableName string) (*SQLiteQueue[T], error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("queue: create dir for %s: %w", path, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&cache=shared", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("queue: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("queue: ping sqlite: %w", err)
	}

	q := &SQLiteQueue[T]{db: db, tableName: tableName}
	if err := q.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func (q *SQLiteQueue[T]) migrate() error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payload TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		visible_at INTEGER NOT NULL,
		completed_at INTEGER
	)`, q.tableName)
	_, err := q.db.Exec(stmt)
	if err != nil {
		return fmt.Errorf("queue: create table %s: %w", q.tableName, err)
	}
	return nil
}

// Send implements Queue.
func (q *SQLiteQueue[T]) Send(ctx context.Context, payload T) error {
	data, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("queue: marshal payload: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (payload, attempts, visible_at) VALUES (?, 0, ?)", q.tableName),
		string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("queue: insert into %s: %w", q.tableName, err)
	}
	return nil
}

// Receive implements Queue. It returns (nil, nil) if no message is currently
// visible.
func (q *SQLiteQueue[T]) Receive(ctx context.Context, visibilityTimeout time.Duration) (*Message[T], error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("queue: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	row := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, payload, attempts FROM %s
			WHERE completed_at IS NULL AND visible_at <= ?
			ORDER BY id ASC LIMIT 1`, q.tableName),
		now,
	)

	var id int64
	var rawPayload string
	var attempts int
	if err := row.Scan(&id, &rawPayload, &attempts); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: scan receive row: %w", err)
	}

	newVisibleAt := time.Now().Add(visibilityTimeout).Unix()
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET visible_at = ?, attempts = attempts + 1 WHERE id = ?", q.tableName),
		newVisibleAt, id,
	); err != nil {
		return nil, fmt.Errorf("queue: mark in-flight: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("queue: commit receive: %w", err)
	}

	payload, err := unmarshalPayload[T]([]byte(rawPayload))
	if err != nil {
		return nil, fmt.Errorf("queue: unmarshal payload for message %d: %w", id, err)
	}
	return &Message[T]{ID: id, Payload: payload, Attempts: attempts + 1}, nil
}

// Complete implements Queue.
func (q *SQLiteQueue[T]) Complete(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET completed_at = ? WHERE id = ?", q.tableName),
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("queue: complete message %d: %w", id, err)
	}
	return nil
}

// RescheduleIn implements Queue, pushing a message's visibility out by delay
// without waiting for its current visibility timeout to lapse — used by the
// broadcast queue's retry schedule (spec.md §4.H).
func (q *SQLiteQueue[T]) RescheduleIn(ctx context.Context, id int64, delay time.Duration) error {
	_, err := q.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET visible_at = ? WHERE id = ?", q.tableName),
		time.Now().Add(delay).Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("queue: reschedule message %d: %w", id, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (q *SQLiteQueue[T]) Close() error {
	return q.db.Close()
}

var _ Queue[int] = (*SQLiteQueue[int])(nil)
