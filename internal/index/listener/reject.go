package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

const rejectsIndexName = "rejects"

// rejectDuplicateCode is the Bitcoin wire protocol's reject code for "already
// have this transaction" — spec.md §4.G excludes exactly this code from
// persisting a terminal reject record.
const rejectDuplicateCode = 0x12

// RejectStore persists non-duplicate transaction rejects so future
// broadcast attempts of the same tx_id short-circuit instead of re-sending
// (spec.md §4.G reject handling, §8 property 6 "reject terminality").
type RejectStore struct {
	store   store.Store
	coin    string
	network string
}

// NewRejectStore wraps the wide-column store for reject bookkeeping.
func NewRejectStore(st store.Store, coin, network string) *RejectStore {
	return &RejectStore{store: st, coin: coin, network: network}
}

func (r *RejectStore) partition() string {
	return fmt.Sprintf("%s:%s", r.coin, r.network)
}

// Persist records txid as terminally rejected with the given code, unless
// code is the duplicate code (mempool already has it — not an error).
func (r *RejectStore) Persist(ctx context.Context, txid model.Hash, code uint8) error {
	if code == rejectDuplicateCode {
		return nil
	}
	row := store.Row{
		Partition: r.partition(),
		Key:       txid.String(),
		Columns: map[string]any{
			"code":        code,
			"rejected_at": time.Now().UTC(),
		},
	}
	return r.store.UpsertRows(ctx, rejectsIndexName, []store.Row{row})
}

// IsRejected reports whether txid has a prior terminal reject record.
func (r *RejectStore) IsRejected(ctx context.Context, txid model.Hash) (bool, error) {
	_, ok, err := r.store.GetRow(ctx, rejectsIndexName, r.partition(), txid.String())
	if err != nil {
		return false, fmt.Errorf("listener: check reject record for %s: %w", txid, err)
	}
	return ok, nil
}
