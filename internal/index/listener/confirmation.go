package listener

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

const transactionsIndexName = "transactions"

// blocksIndexName is the wide-column index Handlers writes confirmed block
// rows to, shared with the bulk indexer's Blocks task.
const blocksIndexName = "blocks"

// ConfirmationChecker answers the broadcaster's "already confirmed in a
// block belonging to the current chain" check (spec.md §4.G outbound
// broadcasting) by reading the transactions index and verifying the height
// it recorded is still on the best chain — a reorg that dropped the
// confirming block makes a previously-confirmed tx broadcastable again.
type ConfirmationChecker struct {
	store   store.Store
	chain   *headerchain.Chain
	coin    string
	network string
}

// NewConfirmationChecker constructs a ConfirmationChecker.
func NewConfirmationChecker(st store.Store, chain *headerchain.Chain, coin, network string) *ConfirmationChecker {
	return &ConfirmationChecker{store: st, chain: chain, coin: coin, network: network}
}

// IsConfirmed reports whether txid is recorded in the transactions index at
// a height still reachable on the current best chain. Rows written at
// unconfirmedHeight by loose mempool transactions do not count.
func (c *ConfirmationChecker) IsConfirmed(ctx context.Context, txid model.Hash) (bool, error) {
	row, ok, err := c.store.GetRow(ctx, transactionsIndexName, fmt.Sprintf("%s:%s", c.coin, c.network), txid.String())
	if err != nil {
		return false, fmt.Errorf("listener: check confirmation for %s: %w", txid, err)
	}
	if !ok {
		return false, nil
	}

	height, ok := asUint32(row.Columns["height"])
	if !ok {
		return false, fmt.Errorf("listener: confirmation row for %s has no height column", txid)
	}
	if height == unconfirmedHeight {
		return false, nil
	}
	if _, stillOnChain := c.chain.GetByHeight(height); !stillOnChain {
		return false, nil
	}
	return true, nil
}

// asUint32 normalizes a store column value to uint32. Columns round-trip
// through JSON in the ClickHouse-backed store, which decodes all numbers as
// float64; in-memory test stores keep the original Go type.
func asUint32(v any) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case int:
		return uint32(n), true
	case int64:
		return uint32(n), true
	case float64:
		return uint32(n), true
	default:
		return 0, false
	}
}
