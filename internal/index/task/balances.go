package task

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
)

// Balances writes one row per (script, height, txid, entry) balance
// movement. An empty rule set tracks every script seen; a non-empty one
// restricts rows to the named scripts only (spec.md §3 "Balances(rules)").
type Balances struct {
	base
	rules    map[string]struct{}
	resolver *outputResolver
}

// NewBalances constructs the Balances index task. rules may be nil to track
// every script.
func NewBalances(coin, network, owner string, st store.Store, checkpoints *blobstore.CheckpointStore, chain *headerchain.Chain, rules []model.BalanceRule, logger *zap.Logger) *Balances {
	var ruleSet map[string]struct{}
	if len(rules) > 0 {
		ruleSet = make(map[string]struct{}, len(rules))
		for _, r := range rules {
			ruleSet[r.Script] = struct{}{}
		}
	}
	return &Balances{
		base: base{
			name:        model.IndexTaskBalances,
			coin:        coin,
			network:     network,
			store:       st,
			checkpoints: checkpoints,
			chain:       chain,
			owner:       owner,
			logger:      logger.Named("balances_task"),
		},
		rules:    ruleSet,
		resolver: newOutputResolver(st, coin, network),
	}
}

func (t *Balances) tracked(script string) bool {
	if t.rules == nil {
		return true
	}
	_, ok := t.rules[script]
	return ok
}

// Index implements Task.
func (t *Balances) Index(ctx context.Context, fetcher *blockrepo.BlockFetcher) error {
	return t.runIndexed(ctx, fetcher, func(block model.Block) []store.Row {
		var rows []store.Row
		for _, tx := range block.Transactions {
			for entryIdx, in := range tx.Inputs {
				if in.PrevTxID.IsZero() {
					continue // coinbase input, nothing spent
				}
				script, value, err := t.resolver.Resolve(ctx, in.PrevTxID, in.PrevVout)
				if err != nil {
					t.logger.Warn("balances: could not resolve spent output",
						zap.String("prev_txid", in.PrevTxID.String()),
						zap.Uint32("prev_vout", in.PrevVout),
						zap.Error(err))
					continue
				}
				if !t.tracked(script) {
					continue
				}
				rows = append(rows, store.Row{
					Partition: fmt.Sprintf("%s:%s:%s", t.coin, t.network, script),
					Key:       fmt.Sprintf("%010d:%s:in:%d", block.Header.Height, tx.TxID, entryIdx),
					Columns: map[string]any{
						"delta_sats": -value,
						"height":     block.Header.Height,
						"txid":       tx.TxID.String(),
					},
				})
			}

			if err := t.resolver.Seed(ctx, tx); err != nil {
				t.logger.Warn("balances: seed outputs failed", zap.Error(err))
			}

			for _, out := range tx.Outputs {
				if !t.tracked(out.Script) {
					continue
				}
				rows = append(rows, store.Row{
					Partition: fmt.Sprintf("%s:%s:%s", t.coin, t.network, out.Script),
					Key:       fmt.Sprintf("%010d:%s:out:%d", block.Header.Height, tx.TxID, out.Vout),
					Columns: map[string]any{
						"delta_sats": out.Value,
						"height":     block.Header.Height,
						"txid":       tx.TxID.String(),
					},
				})
			}
		}
		return rows
	})
}

var _ Task = (*Balances)(nil)
