package bitcoin

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/chainindex/internal/utxo/chain"
	"github.com/goodnatureofminers/chainindex/internal/utxo/model"
)

type TransactionOutputResolverFactory interface {
	New() *chain.TransactionOutputResolver
}

// OutputConverter turns the outputs of a raw RPC transaction into domain
// outputs stamped with the height and time of the block holding it.
type OutputConverter interface {
	Convert(tx btcjson.TxRawResult, blockHeight uint64, blockTime time.Time) ([]model.TransactionOutput, error)
	ConvertLookup(tx btcjson.TxRawResult) ([]model.TransactionOutputLookup, error)
}

// ScriptDecoder extracts the addresses an output's script pays to.
type ScriptDecoder interface {
	decodeAddresses(vout btcjson.Vout) ([]string, error)
}

// TransactionOutputResolver resolves the outputs a batch of previous
// transactions created, so inputs spending them can be valued. Satisfied by
// *chain.TransactionOutputResolver in production and mocked in tests.
//
//go:generate mockgen -source=types.go -destination=transaction_output_resolver_mock.go -package=bitcoin
type TransactionOutputResolver interface {
	ResolveBatch(ctx context.Context, txids []string) (map[string][]model.TransactionOutput, error)
}
