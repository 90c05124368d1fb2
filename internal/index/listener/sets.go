package listener

import (
	"sync"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// clearCapacity is the bulk-clear threshold spec.md §4.G/§9 preserves as-is:
// the sets below are heuristics that bound memory, not correctness-bearing
// state — the reject table and the mempool inv handshake recover correct
// behavior after a clear.
const clearCapacity = 1000

// hashSet is a concurrency-safe set of hashes that clears itself entirely
// once it reaches clearCapacity entries, rather than evicting individually.
type hashSet struct {
	mu      sync.Mutex
	entries map[model.Hash]struct{}
}

func newHashSet() *hashSet {
	return &hashSet{entries: make(map[model.Hash]struct{})}
}

// Add inserts h, bulk-clearing first if the set is at capacity.
func (s *hashSet) Add(h model.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= clearCapacity {
		s.entries = make(map[model.Hash]struct{})
	}
	s.entries[h] = struct{}{}
}

// Contains reports whether h is currently tracked.
func (s *hashSet) Contains(h model.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[h]
	return ok
}

// Remove deletes h if present; a no-op otherwise.
func (s *hashSet) Remove(h model.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, h)
}

// Len reports the current size, for tests.
func (s *hashSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// broadcastingSet is the Broadcasting table (spec.md §4.G, §9): a bounded
// map from transaction id to its raw bytes, so a subsequent getdata(MSG_TX)
// from a peer can be answered without re-fetching the transaction. Same
// bulk-clear policy as hashSet.
type broadcastingSet struct {
	mu      sync.Mutex
	entries map[model.Hash][]byte
}

func newBroadcastingSet() *broadcastingSet {
	return &broadcastingSet{entries: make(map[model.Hash][]byte)}
}

// Add inserts the raw bytes for txid, bulk-clearing first if at capacity.
func (s *broadcastingSet) Add(txid model.Hash, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= clearCapacity {
		s.entries = make(map[model.Hash][]byte)
	}
	s.entries[txid] = raw
}

// Take returns the raw bytes for txid and removes the entry, ok=false if
// absent.
func (s *broadcastingSet) Take(txid model.Hash) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.entries[txid]
	if ok {
		delete(s.entries, txid)
	}
	return raw, ok
}

// Evict removes txid without returning its payload, used when a mempool inv
// announces a transaction we were tracking for broadcast.
func (s *broadcastingSet) Evict(txid model.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, txid)
}

// Len reports the current size, for tests.
func (s *broadcastingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
