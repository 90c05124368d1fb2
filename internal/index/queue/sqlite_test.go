package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodnatureofminers/chainindex/internal/index/queue"
)

type testPayload struct {
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
}

func newTestQueue(t *testing.T) *queue.SQLiteQueue[testPayload] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := queue.NewSQLiteQueue[testPayload](path, "work_queue")
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestSQLiteQueue_SendReceiveComplete(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, testPayload{From: 1, To: 100}))

	msg, err := q.Receive(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, uint32(1), msg.Payload.From)

	// immediately invisible again
	again, err := q.Receive(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, q.Complete(ctx, msg.ID))
}

func TestSQLiteQueue_RedeliveryAfterVisibilityTimeout(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, testPayload{From: 1, To: 100}))

	first, err := q.Receive(ctx, time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(10 * time.Millisecond)

	second, err := q.Receive(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Attempts)
}

func TestSQLiteQueue_RescheduleIn(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, testPayload{From: 1, To: 2}))
	msg, err := q.Receive(ctx, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, q.RescheduleIn(ctx, msg.ID, 20*time.Millisecond))

	immediate, err := q.Receive(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, immediate)

	time.Sleep(30 * time.Millisecond)
	later, err := q.Receive(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, later)
}

func TestSQLiteQueue_CompleteHidesForever(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, testPayload{From: 1, To: 2}))
	msg, err := q.Receive(ctx, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, msg.ID))

	time.Sleep(10 * time.Millisecond)
	again, err := q.Receive(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, again)
}
