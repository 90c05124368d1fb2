package task

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

const outputsIndexName = "outputs"

// outputResolver resolves the (script, value) an earlier output carried, so
// an input spending it can be valued for the balance/wallet tasks. It mirrors
// internal/utxo/chain.TransactionOutputResolver's local-cache-then-lookup
// shape, but is backed by the generic wide-column store instead of a
// ClickHouse-specific repository, and self-seeds: every output a task
// observes is written to the "outputs" index as it's encountered, so a
// later spend (even in the very next block) resolves without a round trip.
type outputResolver struct {
	store   store.Store
	coin    string
	network string
	local   map[model.Hash]map[uint32]model.TxOutput
}

func newOutputResolver(st store.Store, coin, network string) *outputResolver {
	return &outputResolver{
		store:   st,
		coin:    coin,
		network: network,
		local:   make(map[model.Hash]map[uint32]model.TxOutput),
	}
}

func outputKey(txid model.Hash, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid.String(), vout)
}

// Seed records a block's own outputs so same-block or next-block spends
// resolve locally, and persists them for future runs.
func (r *outputResolver) Seed(ctx context.Context, tx model.Transaction) error {
	if r.local[tx.TxID] == nil {
		r.local[tx.TxID] = make(map[uint32]model.TxOutput)
	}

	rows := make([]store.Row, 0, len(tx.Outputs))
	for _, out := range tx.Outputs {
		r.local[tx.TxID][out.Vout] = out
		rows = append(rows, store.Row{
			Partition: fmt.Sprintf("%s:%s", r.coin, r.network),
			Key:       outputKey(tx.TxID, out.Vout),
			Columns: map[string]any{
				"script": out.Script,
				"value":  out.Value,
			},
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.store.UpsertRows(ctx, outputsIndexName, rows)
}

// Resolve returns the script and value of the output at (txid, vout),
// consulting the local cache before falling back to the store.
func (r *outputResolver) Resolve(ctx context.Context, txid model.Hash, vout uint32) (script string, value int64, err error) {
	if byVout, ok := r.local[txid]; ok {
		if out, ok := byVout[vout]; ok {
			return out.Script, out.Value, nil
		}
	}

	row, ok, err := r.store.GetRow(ctx, outputsIndexName, fmt.Sprintf("%s:%s", r.coin, r.network), outputKey(txid, vout))
	if err != nil {
		return "", 0, fmt.Errorf("resolve output %s:%d: %w", txid, vout, err)
	}
	if !ok {
		return "", 0, fmt.Errorf("output %s:%d not found", txid, vout)
	}

	script, _ = row.Columns["script"].(string)
	switch v := row.Columns["value"].(type) {
	case int64:
		value = v
	case float64:
		value = int64(v)
	}
	return script, value, nil
}
