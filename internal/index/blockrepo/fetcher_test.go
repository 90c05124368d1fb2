package blockrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/errs"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

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

func buildTestChain(t *testing.T, tip byte) (*headerchain.Chain, *fakeRepository) {
	t.Helper()
	genesis := model.Header{Hash: testHash(0)}
	chain, err := headerchain.New(genesis)
	require.NoError(t, err)

	repo := &fakeRepository{blocks: map[model.Hash]model.Block{
		testHash(0): {Header: genesis},
	}}

	prev := testHash(0)
	for i := byte(1); i <= tip; i++ {
		h := model.Header{Hash: testHash(i), PrevHash: prev, Height: uint32(i)}
		require.NoError(t, chain.Connect(h))
		repo.blocks[testHash(i)] = model.Block{Header: h}
		prev = testHash(i)
	}
	return chain, repo
}

func TestBlockFetcher_YieldsAscendingOrder(t *testing.T) {
	chain, repo := buildTestChain(t, 10)
	fetcher := blockrepo.NewBlockFetcher(chain, repo, 2, 6)

	var got []uint32
	for {
		block, ok, err := fetcher.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, block.Header.Height)
	}
	assert.Equal(t, []uint32{2, 3, 4, 5, 6}, got)
}

func TestBlockFetcher_ReorgDeeperThanRangeFails(t *testing.T) {
	chain, repo := buildTestChain(t, 5)
	fetcher := blockrepo.NewBlockFetcher(chain, repo, 3, 20)

	_, _, err := fetcher.Next(context.Background())
	assert.ErrorIs(t, err, errs.ErrChainReorgDeeperThanRange)
}

func TestBlockFetcher_EmptyRange(t *testing.T) {
	chain, repo := buildTestChain(t, 5)
	fetcher := blockrepo.NewBlockFetcher(chain, repo, 3, 2)

	_, ok, err := fetcher.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
