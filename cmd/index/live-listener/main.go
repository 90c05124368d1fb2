package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/chainindex/internal/index/headerchain"
	"github.com/goodnatureofminers/chainindex/internal/index/listener"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
	"github.com/goodnatureofminers/chainindex/internal/index/queue"
	"github.com/goodnatureofminers/chainindex/internal/index/scheduler"
	"github.com/goodnatureofminers/chainindex/internal/index/store"
	"github.com/goodnatureofminers/chainindex/internal/metrics"
)

type config struct {
	ClickhouseDSN    string `long:"clickhouse-dsn" env:"CHAININDEX_CLICKHOUSE_DSN" description:"ClickHouse DSN" required:"true"`
	Coin             string `long:"coin" env:"CHAININDEX_COIN" description:"coin name" required:"true"`
	Network          string `long:"network" env:"CHAININDEX_NETWORK" description:"network name" required:"true"`
	PeerAddr         string `long:"peer-addr" env:"CHAININDEX_PEER_ADDR" description:"host:port of the peer to connect to" required:"true"`
	GenesisHash      string `long:"genesis-hash" env:"CHAININDEX_GENESIS_HASH" description:"genesis block hash, big-endian hex" required:"true"`
	GenesisTimestamp int64  `long:"genesis-timestamp" env:"CHAININDEX_GENESIS_TIMESTAMP" description:"genesis block unix timestamp" required:"true"`
	BroadcastDBPath  string `long:"broadcast-db" env:"CHAININDEX_BROADCAST_DB" description:"sqlite file backing the broadcast queue" default:"./data/broadcast.db"`
	EventsDBPath     string `long:"events-db" env:"CHAININDEX_EVENTS_DB" description:"sqlite file backing the new-tx/new-block event queues" default:"./data/events.db"`
	SchedulerDepth   int    `long:"scheduler-depth" env:"CHAININDEX_SCHEDULER_DEPTH" description:"buffered depth of the per-peer chain scheduler" default:"64"`
	MetricsAddr      string `long:"metrics-addr" env:"CHAININDEX_METRICS_ADDR" description:"address for metrics server" default:":2114"`
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
		logger.Fatal("live listener failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	indexStore, err := store.NewClickHouseStore(cfg.ClickhouseDSN, metrics.NewIndexStore())
	if err != nil {
		return fmt.Errorf("init index store: %w", err)
	}

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

	broadcastQueue, err := queue.NewSQLiteQueue[listener.BroadcastMessage](cfg.BroadcastDBPath, "broadcast")
	if err != nil {
		return fmt.Errorf("init broadcast queue: %w", err)
	}
	defer func() { _ = broadcastQueue.Close() }()

	newTxQueue, err := queue.NewSQLiteQueue[listener.NewTransactionEvent](cfg.EventsDBPath, "new_transaction")
	if err != nil {
		return fmt.Errorf("init new-transaction event queue: %w", err)
	}
	defer func() { _ = newTxQueue.Close() }()

	newBlockQueue, err := queue.NewSQLiteQueue[listener.NewBlockEvent](cfg.EventsDBPath, "new_block")
	if err != nil {
		return fmt.Errorf("init new-block event queue: %w", err)
	}
	defer func() { _ = newBlockQueue.Close() }()

	events := listener.NewQueueEventBus(newTxQueue, newBlockQueue)
	peers := listener.NewPeerSet()
	headerSync := listener.NewHeaderSync(chain)
	chainScheduler := scheduler.New(cfg.SchedulerDepth)
	defer chainScheduler.Stop()
	liveMetrics := metrics.NewLiveListener(cfg.Coin, cfg.Network)

	session := listener.NewSession(
		cfg.Coin, cfg.Network,
		indexStore,
		chain,
		chainScheduler,
		headerSync,
		broadcastQueue,
		peers,
		events,
		liveMetrics,
		logger,
	)

	conn, err := dialPeer(cfg.Network, cfg.PeerAddr, headerSync, session.Handlers)
	if err != nil {
		return fmt.Errorf("dial peer %s: %w", cfg.PeerAddr, err)
	}
	peers.Add(conn)
	defer peers.Remove(conn.Addr())

	l := listener.NewListener(conn, headerSync, session.Handlers, logger)
	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("start listener for %s: %w", cfg.PeerAddr, err)
	}

	broadcastDone := make(chan error, 1)
	go func() {
		broadcastDone <- session.Broadcaster.Run(ctx, bulkVisibilityTimeout)
	}()

	<-ctx.Done()
	logger.Info("shutting down live listener")

	shutdownErr := l.Shutdown()
	broadcastErr := <-broadcastDone
	if shutdownErr != nil {
		return shutdownErr
	}
	if broadcastErr != nil && !errors.Is(broadcastErr, context.Canceled) {
		return broadcastErr
	}
	return nil
}

// bulkVisibilityTimeout bounds how long a broadcast message stays invisible
// to other consumers of the same queue while this process is retrying it;
// there is only ever one live listener per peer connection, so this mostly
// guards against a crash mid-broadcast rather than real contention.
const bulkVisibilityTimeout = 2 * time.Minute

// dialPeer opens a TCP connection to addr and starts the wire-protocol
// version handshake (it returns without waiting for it), routing every inbound message this process cares about
// to headerSync / handlers. The returned *peer.Peer satisfies
// listener.PeerConn directly.
func dialPeer(network, addr string, headerSync *listener.HeaderSync, handlers *listener.Handlers) (*peer.Peer, error) {
	params, err := chainParams(network)
	if err != nil {
		return nil, err
	}

	// ctx here is only used to route Dispatch calls; peer.Config's
	// listeners don't carry one, so handlers/headerSync see a background
	// context for every message they handle.
	ctx := context.Background()

	cfg := &peer.Config{
		UserAgentName:    "chainindex",
		UserAgentVersion: "0.1.0",
		ChainParams:      params,
		Services:         0,
		ProtocolVersion:  wire.ProtocolVersion,
		DisableRelayTx:   true,
		Listeners: peer.MessageListeners{
			OnHeaders: func(_ *peer.Peer, msg *wire.MsgHeaders) {
				headerSync.OnHeadersReceived(msg)
			},
			OnTx: func(_ *peer.Peer, msg *wire.MsgTx) {
				handlers.HandleTx(ctx, msg)
			},
			OnBlock: func(p *peer.Peer, msg *wire.MsgBlock, _ []byte) {
				handlers.HandleBlock(ctx, p, msg)
			},
			OnInv: func(p *peer.Peer, msg *wire.MsgInv) {
				handlers.HandleInv(p, msg)
			},
			OnGetData: func(p *peer.Peer, msg *wire.MsgGetData) {
				handlers.HandleGetData(p, msg)
			},
			OnReject: func(_ *peer.Peer, msg *wire.MsgReject) {
				handlers.HandleReject(ctx, msg)
			},
		},
	}

	p, err := peer.NewOutboundPeer(cfg, addr)
	if err != nil {
		return nil, fmt.Errorf("construct outbound peer: %w", err)
	}

	conn, err := net.Dial("tcp", p.Addr())
	if err != nil {
		return nil, fmt.Errorf("tcp dial: %w", err)
	}
	p.AssociateConnection(conn)

	return p, nil
}

func chainParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

func parseHash(s string) (model.Hash, error) {
	hash, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return model.Hash{}, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return model.Hash(*hash), nil
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
