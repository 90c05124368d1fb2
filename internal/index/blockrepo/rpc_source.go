package blockrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/utxo/bitcoin"
)

// RPCClient is the subset of internal/utxo/bitcoin.RPCClient an RPCSource
// needs: a verbose, transaction-inclusive block lookup by hash.
type RPCClient interface {
	GetBlockVerboseTx(hash *chainhash.Hash) (*btcjson.GetBlockVerboseTxResult, error)
}

// RPCSource fetches blocks directly from a node's RPC interface rather than
// from a connected p2p peer or the blob cache — used by the bulk indexer
// ahead of any cache population, grounded on the same
// GetBlockVerboseTx call internal/utxo/bitcoin.BackfillSource already makes.
type RPCSource struct {
	rpc RPCClient
}

// NewRPCSource wraps an RPC client as a Repository.
func NewRPCSource(rpc RPCClient) *RPCSource {
	return &RPCSource{rpc: rpc}
}

// GetBlocks implements Repository, preserving input order.
func (s *RPCSource) GetBlocks(_ context.Context, hashes []model.Hash) ([]model.Block, error) {
	blocks := make([]model.Block, 0, len(hashes))
	for _, h := range hashes {
		chainHash := chainhash.Hash(h)
		verbose, err := s.rpc.GetBlockVerboseTx(&chainHash)
		if err != nil {
			return nil, fmt.Errorf("blockrepo: rpc get block %s: %w", h, err)
		}
		block, err := convertVerboseBlock(h, verbose)
		if err != nil {
			return nil, fmt.Errorf("blockrepo: convert block %s: %w", h, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func convertVerboseBlock(hash model.Hash, src *btcjson.GetBlockVerboseTxResult) (model.Block, error) {
	prevHash, err := chainhash.NewHashFromStr(src.PreviousHash)
	if err != nil && src.PreviousHash != "" {
		return model.Block{}, fmt.Errorf("parse prev hash %q: %w", src.PreviousHash, err)
	}
	var prev model.Hash
	if prevHash != nil {
		prev = model.Hash(*prevHash)
	}

	txs := make([]model.Transaction, 0, len(src.Tx))
	for _, tx := range src.Tx {
		converted, err := convertVerboseTx(tx)
		if err != nil {
			return model.Block{}, err
		}
		txs = append(txs, converted)
	}

	return model.Block{
		Header: model.Header{
			Hash:      hash,
			PrevHash:  prev,
			Height:    uint32(src.Height),
			Timestamp: time.Unix(src.Time, 0).UTC(),
			TxCount:   uint32(len(src.Tx)),
		},
		Transactions: txs,
	}, nil
}

func convertVerboseTx(tx btcjson.TxRawResult) (model.Transaction, error) {
	txid, err := chainhash.NewHashFromStr(tx.Txid)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse txid %q: %w", tx.Txid, err)
	}

	inputs := make([]model.TxInput, 0, len(tx.Vin))
	for _, vin := range tx.Vin {
		if vin.IsCoinBase() {
			continue
		}
		prevTxID, err := chainhash.NewHashFromStr(vin.Txid)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parse vin txid %q: %w", vin.Txid, err)
		}
		inputs = append(inputs, model.TxInput{
			PrevTxID: model.Hash(*prevTxID),
			PrevVout: vin.Vout,
			Script:   vin.ScriptSig.Hex,
		})
	}

	outputs := make([]model.TxOutput, 0, len(tx.Vout))
	for _, vout := range tx.Vout {
		satoshis, err := bitcoin.BtcToSatoshis(vout.Value)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("tx %s output %d: %w", tx.Txid, vout.N, err)
		}
		outputs = append(outputs, model.TxOutput{
			Vout:   vout.N,
			Value:  int64(satoshis),
			Script: vout.ScriptPubKey.Hex,
		})
	}

	return model.Transaction{
		TxID:    model.Hash(*txid),
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}

var _ Repository = (*RPCSource)(nil)
