package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/blockrepo"
	"github.com/goodnatureofminers/chainindex/internal/index/bulk"
	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/queue"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
	"github.com/goodnatureofminers/chainindex/internal/index/task"
	"github.com/goodnatureofminers/chainindex/internal/metrics"
	"github.com/goodnatureofminers/chainindex/internal/utxo/bitcoin"
	utxomodel "github.com/goodnatureofminers/chainindex/internal/utxo/model"
)

type config struct {
	ClickhouseDSN       string        `long:"clickhouse-dsn" env:"CHAININDEX_CLICKHOUSE_DSN" description:"ClickHouse DSN" required:"true"`
	Coin                string        `long:"coin" env:"CHAININDEX_COIN" description:"coin name" required:"true"`
	Network             string        `long:"network" env:"CHAININDEX_NETWORK" description:"network name" required:"true"`
	RPCURL              string        `long:"rpc-url" env:"CHAININDEX_RPC_URL" description:"node RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser             string        `long:"rpc-user" env:"CHAININDEX_RPC_USER" description:"node RPC username"`
	RPCPassword         string        `long:"rpc-password" env:"CHAININDEX_RPC_PASSWORD" description:"node RPC password"`
	GenesisHash         string        `long:"genesis-hash" env:"CHAININDEX_GENESIS_HASH" description:"genesis block hash, big-endian hex" required:"true"`
	GenesisTimestamp    int64         `long:"genesis-timestamp" env:"CHAININDEX_GENESIS_TIMESTAMP" description:"genesis block unix timestamp" required:"true"`
	BlobDir             string        `long:"blob-dir" env:"CHAININDEX_BLOB_DIR" description:"directory backing the blob store" default:"./data/blobs"`
	QueueDBPath         string        `long:"queue-db" env:"CHAININDEX_QUEUE_DB" description:"sqlite file backing the work queue" default:"./data/bulk-work.db"`
	Owner               string        `long:"owner" env:"CHAININDEX_OWNER" description:"this process's lease/checkpoint owner token" required:"true"`
	BlockGranularity    uint32        `long:"block-granularity" env:"CHAININDEX_BLOCK_GRANULARITY" description:"height step size for enqueue windows"`
	TransactionsPerWork uint32        `long:"transactions-per-work" env:"CHAININDEX_TRANSACTIONS_PER_WORK" description:"transaction-count threshold per work message"`
	MetricsAddr         string        `long:"metrics-addr" env:"CHAININDEX_METRICS_ADDR" description:"address for metrics server" default:":2113"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("bulk indexer failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	indexStore, err := store.NewClickHouseStore(cfg.ClickhouseDSN, metrics.NewIndexStore())
	if err != nil {
		return fmt.Errorf("init index store: %w", err)
	}

	blobs, err := blobstore.NewFilesystemStore(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	checkpoints := blobstore.NewCheckpointStore(blobs)

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()
	rpc := bitcoin.NewRPCClient(rpcClient, metrics.NewRPCClient(utxomodel.Coin(cfg.Coin), utxomodel.Network(cfg.Network)))

	genesisHash, err := parseHash(cfg.GenesisHash)
	if err != nil {
		return err
	}
	chain, err := headerchain.New(model.Header{
		Hash:      genesisHash,
		Timestamp: time.Unix(cfg.GenesisTimestamp, 0).UTC(),
	})
	if err != nil {
		return fmt.Errorf("init header chain: %w", err)
	}

	logger.Info("synchronizing header chain from rpc, this can take a while on first run")
	if err := syncHeaderChainFromRPC(ctx, chain, rpc); err != nil {
		return fmt.Errorf("sync header chain: %w", err)
	}
	logger.Info("header chain synchronized", zap.Uint32("tip_height", chain.Tip().Height))

	repository := blockrepo.NewRPCSource(rpc)

	work, err := queue.NewSQLiteQueue[model.WorkMessage](cfg.QueueDBPath, "bulk_work")
	if err != nil {
		return fmt.Errorf("init work queue: %w", err)
	}
	defer func() { _ = work.Close() }()

	tasks := map[model.IndexTask]task.Task{
		model.IndexTaskBlocks:       task.NewBlocks(cfg.Coin, cfg.Network, cfg.Owner, indexStore, checkpoints, chain, logger),
		model.IndexTaskTransactions: task.NewTransactions(cfg.Coin, cfg.Network, cfg.Owner, indexStore, checkpoints, chain, logger),
		model.IndexTaskBalances:     task.NewBalances(cfg.Coin, cfg.Network, cfg.Owner, indexStore, checkpoints, chain, nil, logger),
		model.IndexTaskWallets:      task.NewWallets(cfg.Coin, cfg.Network, cfg.Owner, indexStore, checkpoints, chain, nil, logger),
	}

	indexer, err := bulk.NewIndexer(
		cfg.Owner,
		bulk.Config{
			BlockGranularity:    cfg.BlockGranularity,
			TransactionsPerWork: cfg.TransactionsPerWork,
		},
		blobs,
		checkpoints,
		chain,
		repository,
		work,
		tasks,
		metrics.NewBulkIndexer(cfg.Coin, cfg.Network),
		logger,
	)
	if err != nil {
		return fmt.Errorf("init bulk indexer: %w", err)
	}

	processed, err := indexer.Run(ctx)
	logger.Info("bulk indexer run finished", zap.Int("messages_processed", processed))
	return err
}

// syncHeaderChainFromRPC walks every height from 1 to the node's current tip,
// connecting each header in order. This is a one-RPC-call-per-block linear
// scan; acceptable for the scaffold this module ships, but the first
// candidate to optimize (batched header-only RPCs, or persisting the chain
// across restarts) if a deployment outgrows it.
func syncHeaderChainFromRPC(ctx context.Context, chain *headerchain.Chain, rpc *bitcoin.RPCClient) error {
	tipHeight, err := rpc.GetBlockCount()
	if err != nil {
		return fmt.Errorf("get block count: %w", err)
	}

	for height := int64(1); height <= tipHeight; height++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		hash, err := rpc.GetBlockHash(height)
		if err != nil {
			return fmt.Errorf("get block hash at height %d: %w", height, err)
		}
		verbose, err := rpc.GetBlockVerboseTx(hash)
		if err != nil {
			return fmt.Errorf("get block %s: %w", hash, err)
		}
		prevHash, err := parseHash(verbose.PreviousHash)
		if err != nil {
			return fmt.Errorf("parse prev hash for block %s: %w", hash, err)
		}
		header := model.Header{
			Hash:      model.Hash(*hash),
			PrevHash:  prevHash,
			Height:    uint32(height),
			Timestamp: time.Unix(verbose.Time, 0).UTC(),
			TxCount:   uint32(len(verbose.Tx)),
		}
		if err := chain.Connect(header); err != nil {
			return fmt.Errorf("connect header at height %d: %w", height, err)
		}
	}
	return nil
}

func parseHash(s string) (model.Hash, error) {
	hash, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return model.Hash{}, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return model.Hash(*hash), nil
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
