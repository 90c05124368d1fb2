package blobstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
)

func TestFilesystemStore_PutGet(t *testing.T) {
	store, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "checkpoints/blocks", []byte("hello")))

	got, err := store.Get(ctx, "checkpoints/blocks")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestFilesystemStore_GetMissingReturnsNotFound(t *testing.T) {
	store, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestFilesystemStore_AcquireExclusivity(t *testing.T) {
	store, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Acquire(ctx, "lock", "worker-a", time.Minute))

	err = store.Acquire(ctx, "lock", "worker-b", time.Minute)
	assert.Error(t, err)

	// the original owner can still renew
	require.NoError(t, store.Renew(ctx, "lock", "worker-a", time.Minute))
}

func TestFilesystemStore_AcquireAfterExpiry(t *testing.T) {
	store, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Acquire(ctx, "lock", "worker-a", -time.Second))

	require.NoError(t, store.Acquire(ctx, "lock", "worker-b", time.Minute))
}

func TestFilesystemStore_ReleaseThenReacquire(t *testing.T) {
	store, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Acquire(ctx, "lock", "worker-a", time.Minute))
	require.NoError(t, store.Release(ctx, "lock", "worker-a"))
	require.NoError(t, store.Acquire(ctx, "lock", "worker-b", time.Minute))
}

func TestFilesystemStore_RenewRequiresOwnership(t *testing.T) {
	store, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Acquire(ctx, "lock", "worker-a", time.Minute))

	err = store.Renew(ctx, "lock", "worker-b", time.Minute)
	assert.Error(t, err)
}
