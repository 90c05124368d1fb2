// Package blockrepo fetches raw blocks by hash, either from a connected p2p
// peer or from an object-store cache, and exposes a bounded, order-preserving
// iterator over a height range for the index tasks to consume.
package blockrepo

import (
	"context"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// Repository fetches blocks by hash. Implementations must preserve input
// order when given a batch, since BlockFetcher relies on ascending-height
// delivery.
type Repository interface {
	GetBlocks(ctx context.Context, hashes []model.Hash) ([]model.Block, error)
}
