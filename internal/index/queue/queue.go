// Package queue implements the at-least-once persistent queue used for both
// the bulk indexer's work queue and the live listener's broadcast queue,
// backed by SQLite (github.com/mattn/go-sqlite3, borrowed from the
// luxfi-indexer example's storage/query/sqlite.go rather than hand-rolling a
// journal format, since no message-broker client appears anywhere in the
// retrieved pack).
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Message wraps a delivered payload with the metadata needed to
// ack/complete or reschedule it.
type Message[T any] struct {
	ID       int64
	Payload  T
	Attempts int
}

// Queue is a generic at-least-once persistent queue. Send enqueues a
// message immediately visible to Receive. Receive hides a message for
// visibilityTimeout, after which it becomes visible again (redelivery)
// unless Complete has removed it for good; RescheduleIn replaces the
// remaining hidden time with the given delay.
type Queue[T any] interface {
	Send(ctx context.Context, payload T) error
	Receive(ctx context.Context, visibilityTimeout time.Duration) (*Message[T], error)
	Complete(ctx context.Context, id int64) error
	RescheduleIn(ctx context.Context, id int64, delay time.Duration) error
	Close() error
}

func marshalPayload[T any](payload T) ([]byte, error) {
	return json.Marshal(payload)
}

func unmarshalPayload[T any](data []byte) (T, error) {
	var payload T
	err := json.Unmarshal(data, &payload)
	return payload, err
}
