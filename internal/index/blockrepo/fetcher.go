package blockrepo

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/chainindex/internal/index/errs"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// fetchWindow bounds how many blocks BlockFetcher requests from the
// repository at a time, keeping a single Next call's latency reasonable
// without holding an entire multi-thousand-block range in memory at once.
const fetchWindow = 32

// BlockFetcher is a bounded, single-use, order-preserving iterator over
// [FromHeight, ToHeight] against a specific header chain snapshot. It fails
// with errs.ErrChainReorgDeeperThanRange if a requested height is no longer
// reachable on the chain (the chain reorganized past the fetcher's start).
type BlockFetcher struct {
	chain      *headerchain.Chain
	repository Repository

	fromHeight uint32
	toHeight   uint32

	next   uint32
	buf    []model.Block
	bufPos int
	done   bool
}

// NewBlockFetcher constructs a fetcher over the inclusive height range
// [fromHeight, toHeight].
func NewBlockFetcher(chain *headerchain.Chain, repository Repository, fromHeight, toHeight uint32) *BlockFetcher {
	return &BlockFetcher{
		chain:      chain,
		repository: repository,
		fromHeight: fromHeight,
		toHeight:   toHeight,
		next:       fromHeight,
	}
}

// Range reports the fetcher's configured bounds.
func (f *BlockFetcher) Range() model.BlockRange {
	return model.BlockRange{From: f.fromHeight, To: f.toHeight}
}

// Next returns the next block in ascending height order, or ok=false once
// the range is exhausted.
func (f *BlockFetcher) Next(ctx context.Context) (model.Block, bool, error) {
	if f.bufPos < len(f.buf) {
		b := f.buf[f.bufPos]
		f.bufPos++
		return b, true, nil
	}
	if f.done || f.next > f.toHeight {
		return model.Block{}, false, nil
	}

	windowEnd := f.next + fetchWindow - 1
	if windowEnd > f.toHeight {
		windowEnd = f.toHeight
	}

	hashes := make([]model.Hash, 0, windowEnd-f.next+1)
	for h := f.next; h <= windowEnd; h++ {
		header, ok := f.chain.GetByHeight(h)
		if !ok {
			return model.Block{}, false, fmt.Errorf("%w: height %d no longer on chain", errs.ErrChainReorgDeeperThanRange, h)
		}
		hashes = append(hashes, header.Hash)
	}

	blocks, err := f.repository.GetBlocks(ctx, hashes)
	if err != nil {
		return model.Block{}, false, fmt.Errorf("blockrepo: fetch %d blocks from height %d: %w", len(hashes), f.next, err)
	}
	if len(blocks) != len(hashes) {
		return model.Block{}, false, fmt.Errorf("blockrepo: requested %d blocks, repository returned %d", len(hashes), len(blocks))
	}

	f.buf = blocks
	f.bufPos = 0
	f.next = windowEnd + 1
	if f.next > f.toHeight {
		f.done = true
	}

	if len(f.buf) == 0 {
		return model.Block{}, false, nil
	}
	b := f.buf[0]
	f.bufPos = 1
	return b, true, nil
}
