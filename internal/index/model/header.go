package model

import "time"

// Header is the minimal header-chain record the indexing subsystems need:
// enough to walk the chain, build locators, and detect reorgs, without
// carrying the full block body.
type Header struct {
	Hash       Hash
	PrevHash   Hash
	Height     uint32
	Timestamp  time.Time
	TxCount    uint32
	Processed  bool
}

// Block is a fully materialized block: its header plus the transactions an
// index task needs to read. BlockFetcher yields these.
type Block struct {
	Header       Header
	Transactions []Transaction
}

// Transaction is the subset of transaction data the balance/wallet/
// transaction index tasks consume.
type Transaction struct {
	TxID    Hash
	Inputs  []TxInput
	Outputs []TxOutput
}

// TxInput references the previous output it spends.
type TxInput struct {
	PrevTxID Hash
	PrevVout uint32
	Script   string
}

// TxOutput carries the value and destination script of one output.
type TxOutput struct {
	Vout   uint32
	Value  int64
	Script string
}

// ScriptRow is one row of the address/script balance index.
type ScriptRow struct {
	Coin       string
	Network    string
	Script     string
	Height     uint32
	DeltaSats  int64
	TxID       Hash
	EntryIndex uint32
}

// WalletRow is one row of the wallet-label balance index.
type WalletRow struct {
	Coin        string
	Network     string
	WalletLabel string
	Height      uint32
	DeltaSats   int64
	TxID        Hash
	Script      string
}

// WalletRule maps a script to the wallet label it belongs to, snapshotted at
// the moment a Wallets task runs.
type WalletRule struct {
	Script string
	Label  string
}

// BalanceRule filters which scripts the Balances task tracks; a nil/empty
// rule set means "track every script".
type BalanceRule struct {
	Script string
}
