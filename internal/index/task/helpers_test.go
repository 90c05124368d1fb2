package task_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

// fakeRepository is a blockrepo.Repository backed by an in-memory map, built
// for tests that need a full Block body rather than just a header chain.
type fakeRepository struct {
	blocks map[model.Hash]model.Block
}

func (f *fakeRepository) GetBlocks(_ context.Context, hashes []model.Hash) ([]model.Block, error) {
	out := make([]model.Block, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, f.blocks[h])
	}
	return out, nil
}

func testHash(b byte) model.Hash {
	var h model.Hash
	h[0] = b
	return h
}

// memStore is a minimal in-memory store.Store for exercising tasks without
// a ClickHouse container.
type memStore struct {
	mu   sync.Mutex
	rows map[string]map[string]store.Row // indexName -> partition|key -> row
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]map[string]store.Row)}
}

func rowKey(partition, key string) string { return partition + "\x00" + key }

func (m *memStore) UpsertRows(_ context.Context, indexName string, rows []store.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.rows[indexName]
	if !ok {
		byKey = make(map[string]store.Row)
		m.rows[indexName] = byKey
	}
	for _, row := range rows {
		byKey[rowKey(row.Partition, row.Key)] = row
	}
	return nil
}

func (m *memStore) GetRow(_ context.Context, indexName, partition, key string) (store.Row, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.rows[indexName]
	if !ok {
		return store.Row{}, false, nil
	}
	row, ok := byKey[rowKey(partition, key)]
	return row, ok, nil
}

func (m *memStore) ScanRange(_ context.Context, indexName, partition, fromKey, toKey string) ([]store.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Row
	for _, row := range m.rows[indexName] {
		if row.Partition != partition {
			continue
		}
		if row.Key < fromKey || row.Key > toKey {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

var _ store.Store = (*memStore)(nil)

// testHarness wires a fresh header chain, filesystem-backed checkpoint store
// and in-memory index store for one test.
type testHarness struct {
	chain       *headerchain.Chain
	checkpoints *blobstore.CheckpointStore
	store       *memStore
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	genesis := model.Header{Hash: testHash(0)}
	chain, err := headerchain.New(genesis)
	require.NoError(t, err)

	blobs, err := blobstore.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	return &testHarness{
		chain:       chain,
		checkpoints: blobstore.NewCheckpointStore(blobs),
		store:       newMemStore(),
	}
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
