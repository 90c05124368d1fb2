// Package headerchain maintains an in-memory view of the block header chain:
// an append-only arena indexed by both hash and height, with fork detection
// and locator computation for reorg handling.
package headerchain

import (
	"fmt"
	"sync"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// linearLocatorSteps is how many single-block steps LocatorOf takes before
// its step size starts doubling, mirroring the Bitcoin reference locator
// shape (10 linear steps, then doubling).
const linearLocatorSteps = 10

// Chain is a thread-safe in-memory header DAG. The zero value is not usable;
// construct with New.
type Chain struct {
	mu sync.RWMutex

	arena      []model.Header
	byHash     map[model.Hash]int
	byHeight   map[uint32]int
	genesis    model.Hash
	tip        model.Hash
}

// New builds an empty Chain rooted at the given genesis header. genesis.Height
// must be 0 and genesis.PrevHash must be the zero hash.
func New(genesis model.Header) (*Chain, error) {
	if genesis.Height != 0 {
		return nil, fmt.Errorf("headerchain: genesis height must be 0, got %d", genesis.Height)
	}
	if !genesis.PrevHash.IsZero() {
		return nil, fmt.Errorf("headerchain: genesis must have zero prev hash")
	}

	c := &Chain{
		byHash:   make(map[model.Hash]int),
		byHeight: make(map[uint32]int),
	}
	c.arena = append(c.arena, genesis)
	c.byHash[genesis.Hash] = 0
	c.byHeight[genesis.Height] = 0
	c.genesis = genesis.Hash
	c.tip = genesis.Hash
	return c, nil
}

// Tip returns the current best-chain tip header.
func (c *Chain) Tip() model.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.arena[c.byHash[c.tip]]
}

// GetByHash looks up a header by hash regardless of whether it sits on the
// best chain.
func (c *Chain) GetByHash(hash model.Hash) (model.Header, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byHash[hash]
	if !ok {
		return model.Header{}, false
	}
	return c.arena[idx], true
}

// GetByHeight looks up the best-chain header at the given height.
func (c *Chain) GetByHeight(height uint32) (model.Header, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byHeight[height]
	if !ok {
		return model.Header{}, false
	}
	h := c.arena[idx]
	// byHeight is only authoritative for the best chain; a header can be in
	// byHash (a side branch) while a different header occupies this height.
	if h.Height != height {
		return model.Header{}, false
	}
	return h, true
}

// Connect appends a new header to the arena. If header.PrevHash is the
// current tip, it extends the best chain directly. If it connects to a known
// ancestor that isn't the tip, it creates or extends a side branch; Connect
// then reorganizes the best chain to the branch with the greater height
// (ties keep the existing tip).
func (c *Chain) Connect(header model.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byHash[header.Hash]; exists {
		return nil
	}
	prevIdx, ok := c.byHash[header.PrevHash]
	if !ok {
		return fmt.Errorf("headerchain: header %s has unknown parent %s", header.Hash, header.PrevHash)
	}
	prev := c.arena[prevIdx]
	if header.Height != prev.Height+1 {
		return fmt.Errorf("headerchain: header %s height %d is not parent height+1 (%d)", header.Hash, header.Height, prev.Height+1)
	}

	idx := len(c.arena)
	c.arena = append(c.arena, header)
	c.byHash[header.Hash] = idx

	currentTip := c.arena[c.byHash[c.tip]]
	if header.Height > currentTip.Height {
		c.relinkBestChain(header.Hash)
	}
	return nil
}

// relinkBestChain walks backward from newTip to the first ancestor already
// present in byHeight at the matching height (the fork point), then rewrites
// byHeight forward along the new branch. Heights at or above the fork point
// belonging to the abandoned branch are left in byHash (still reachable by
// GetByHash) but are no longer reachable via GetByHeight.
func (c *Chain) relinkBestChain(newTip model.Hash) {
	type step struct {
		hash   model.Hash
		height uint32
	}
	var path []step
	h := newTip
	for {
		idx := c.byHash[h]
		hdr := c.arena[idx]
		path = append(path, step{hash: h, height: hdr.Height})
		if existingIdx, ok := c.byHeight[hdr.Height]; ok && c.arena[existingIdx].Hash == h {
			break
		}
		if hdr.Height == 0 {
			break
		}
		h = hdr.PrevHash
	}
	for _, s := range path {
		c.byHeight[s.height] = c.byHash[s.hash]
	}
	c.tip = newTip
}

// FindFork walks the supplied locator (newest-first, as produced by a peer's
// own LocatorOf) against this chain and returns the highest block both
// chains agree on. ok is false only if none of the locator hashes — not even
// genesis — are known, which should not happen for a well-formed locator.
func (c *Chain) FindFork(locator model.BlockLocator) (model.Header, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, hash := range locator {
		idx, ok := c.byHash[hash]
		if !ok {
			continue
		}
		hdr := c.arena[idx]
		if onBest, ok := c.byHeight[hdr.Height]; ok && c.arena[onBest].Hash == hash {
			return hdr, true
		}
	}
	return model.Header{}, false
}

// LocatorOf builds a block locator starting at the given hash and walking
// backward along that header's own ancestry (not necessarily the current
// best chain), thinning exponentially after the first linearLocatorSteps
// hops, and always terminating at genesis.
func (c *Chain) LocatorOf(from model.Hash) (model.BlockLocator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.byHash[from]
	if !ok {
		return nil, fmt.Errorf("headerchain: unknown hash %s", from)
	}

	var locator model.BlockLocator
	step := 1
	cur := c.arena[idx]
	count := 0
	for {
		locator = append(locator, cur.Hash)
		if cur.Hash == c.genesis {
			break
		}
		if count >= linearLocatorSteps {
			step *= 2
		}
		for i := 0; i < step; i++ {
			parentIdx, ok := c.byHash[cur.PrevHash]
			if !ok {
				return locator, nil
			}
			cur = c.arena[parentIdx]
			if cur.Hash == c.genesis {
				break
			}
		}
		count++
	}
	return locator, nil
}

// EnumerateAfter returns, in ascending height order, the best-chain headers
// strictly after the given height, up to limit entries (0 means unlimited).
func (c *Chain) EnumerateAfter(height uint32, limit int) []model.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tip := c.arena[c.byHash[c.tip]]
	var out []model.Header
	for h := height + 1; h <= tip.Height; h++ {
		idx, ok := c.byHeight[h]
		if !ok {
			break
		}
		out = append(out, c.arena[idx])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
