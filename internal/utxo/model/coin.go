package model

type Coin string
type Network string

var (
	BTC Coin = "BTC"
	LTC Coin = "LTC"
	RVN Coin = "RVN"
)

var (
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
)
