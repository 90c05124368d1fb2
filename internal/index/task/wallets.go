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

// Wallets writes balance movements grouped by wallet label instead of by raw
// script, per a snapshot of model.WalletRule mappings (spec.md §3
// "Wallets(rules)"). A script with no matching rule is skipped — it belongs
// to no known wallet.
type Wallets struct {
	base
	labelByScript map[string]string
	resolver      *outputResolver
}

// NewWallets constructs the Wallets index task from a snapshot of wallet
// rules. Rules are resolved once at construction; a rule change takes effect
// on the next run of this task, not mid-run.
func NewWallets(coin, network, owner string, st store.Store, checkpoints *blobstore.CheckpointStore, chain *headerchain.Chain, rules []model.WalletRule, logger *zap.Logger) *Wallets {
	labels := make(map[string]string, len(rules))
	for _, r := range rules {
		labels[r.Script] = r.Label
	}
	return &Wallets{
		base: base{
			name:        model.IndexTaskWallets,
			coin:        coin,
			network:     network,
			store:       st,
			checkpoints: checkpoints,
			chain:       chain,
			owner:       owner,
			logger:      logger.Named("wallets_task"),
		},
		labelByScript: labels,
		resolver:      newOutputResolver(st, coin, network),
	}
}

func (t *Wallets) walletRow(block model.Block, tx model.Transaction, entry string, script string, delta int64) (store.Row, bool) {
	label, ok := t.labelByScript[script]
	if !ok {
		return store.Row{}, false
	}
	return store.Row{
		Partition: fmt.Sprintf("%s:%s:%s", t.coin, t.network, label),
		Key:       fmt.Sprintf("%010d:%s:%s", block.Header.Height, tx.TxID, entry),
		Columns: map[string]any{
			"delta_sats": delta,
			"height":     block.Header.Height,
			"txid":       tx.TxID.String(),
			"script":     script,
		},
	}, true
}

// Index implements Task.
func (t *Wallets) Index(ctx context.Context, fetcher *blockrepo.BlockFetcher) error {
	return t.runIndexed(ctx, fetcher, func(block model.Block) []store.Row {
		var rows []store.Row
		for _, tx := range block.Transactions {
			for entryIdx, in := range tx.Inputs {
				if in.PrevTxID.IsZero() {
					continue
				}
				script, value, err := t.resolver.Resolve(ctx, in.PrevTxID, in.PrevVout)
				if err != nil {
					t.logger.Warn("wallets: could not resolve spent output",
						zap.String("prev_txid", in.PrevTxID.String()),
						zap.Uint32("prev_vout", in.PrevVout),
						zap.Error(err))
					continue
				}
				if row, ok := t.walletRow(block, tx, fmt.Sprintf("in:%d", entryIdx), script, -value); ok {
					rows = append(rows, row)
				}
			}

			if err := t.resolver.Seed(ctx, tx); err != nil {
				t.logger.Warn("wallets: seed outputs failed", zap.Error(err))
			}

			for _, out := range tx.Outputs {
				if row, ok := t.walletRow(block, tx, fmt.Sprintf("out:%d", out.Vout), out.Script, out.Value); ok {
					rows = append(rows, row)
				}
			}
		}
		return rows
	})
}

var _ Task = (*Wallets)(nil)
