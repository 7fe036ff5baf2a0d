package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"agreementIndexer/internal/api"
	"agreementIndexer/internal/config"
	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/indexer"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Agreement factory event indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the factory and serve the resync API",
		RunE:  runIndexer,
	}

	addChainFlags(runCmd)
	addStoreFlags(runCmd)
	runCmd.Flags().String("factory", "", "factory contract address")
	runCmd.Flags().Duration("poll-interval", 10*time.Second, "delay between factory poll ticks")
	runCmd.Flags().Uint64("startup-lookback", 2, "blocks behind head to start from when no cursor is persisted")
	runCmd.Flags().Int("handler-concurrency", 8, "maximum concurrent creation handlers")
	runCmd.Flags().String("cursor", "memory", "cursor backend (memory, store, file)")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path for the file cursor")
	runCmd.Flags().String("http-addr", ":8080", "HTTP listen address")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Resync the recent history of one contract",
		RunE:  runSync,
	}

	addChainFlags(syncCmd)
	addStoreFlags(syncCmd)
	syncCmd.Flags().String("address", "", "contract address")
	syncCmd.Flags().String("kind", "", "contract kind (rent-vault, group-buy-escrow, allowance-treasury)")
	syncCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(syncCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().Uint64("chain-id", 0, "expected chain id, 0 skips the check")
	cmd.Flags().Duration("rpc-timeout", 30*time.Second, "timeout of a single RPC call")
	cmd.Flags().Float64("rpc-rate-limit", 0, "maximum RPC calls per second, 0 means unlimited")
	cmd.Flags().Int("max-retries", 2, "maximum retry attempts per step")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Uint64("sync-window", 10000, "blocks behind head scanned by a contract sync")
	cmd.Flags().Uint64("max-block-range", 10000, "maximum blocks per log query")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "postgres", "store backend (postgres, sqlite, memory)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("sqlite-path", "./data/indexer.db", "SQLite database path")
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	registry, err := contracts.DefaultRegistry()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := newChainClient(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	factory := common.HexToAddress(cfg.Factory)
	cursorStore, err := openCursorStore(cfg, store)
	if err != nil {
		return err
	}
	cursor := indexer.NewCursor("factory:"+contracts.FormatAddress(factory), cursorStore)

	retry := indexer.RetryPolicy{MaxRetries: cfg.Retry.MaxRetries, Backoff: cfg.Retry.Backoff}
	syncer, err := indexer.NewSynchronizer(indexer.SyncConfig{
		ChainID:       cfg.Chain.ChainID,
		Window:        cfg.SyncWindow,
		MaxBlockRange: cfg.MaxBlockRange,
		Retry:         retry,
	}, chainClient, registry, store, logger)
	if err != nil {
		return err
	}

	handler := indexer.NewCreationHandler(cfg.Chain.ChainID, chainClient, store, syncer, retry, logger)

	poller, err := indexer.NewPoller(indexer.PollerConfig{
		ChainID:            cfg.Chain.ChainID,
		Factory:            factory,
		Interval:           cfg.PollInterval,
		StartupLookback:    cfg.StartupLookback,
		MaxBlockRange:      cfg.MaxBlockRange,
		HandlerConcurrency: cfg.HandlerConcurrency,
		Retry:              retry,
	}, chainClient, registry, handler, cursor, logger)
	if err != nil {
		return err
	}

	server, err := api.NewServer(cfg.HTTPAddr, syncer, logger)
	if err != nil {
		return err
	}

	logger.Info("indexer start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Uint64("chain_id", cfg.Chain.ChainID),
		zap.String("factory", contracts.FormatAddress(factory)),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("sync_window", cfg.SyncWindow),
		zap.String("store", cfg.Store.Backend),
		zap.String("cursor", cfg.Cursor),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := poller.Run(gctx); err != nil {
			return fmt.Errorf("poller: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	return g.Wait()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
