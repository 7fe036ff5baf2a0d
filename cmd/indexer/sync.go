package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agreementIndexer/internal/config"
	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/indexer"
)

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
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
	kind, err := contracts.ParseKind(cfg.Kind)
	if err != nil {
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

	syncer, err := indexer.NewSynchronizer(indexer.SyncConfig{
		ChainID:       cfg.Chain.ChainID,
		Window:        cfg.SyncWindow,
		MaxBlockRange: cfg.MaxBlockRange,
		Retry:         indexer.RetryPolicy{MaxRetries: cfg.Retry.MaxRetries, Backoff: cfg.Retry.Backoff},
	}, chainClient, registry, store, logger)
	if err != nil {
		return err
	}

	address := common.HexToAddress(cfg.Address)
	logger.Info("sync start",
		zap.String("address", contracts.FormatAddress(address)),
		zap.Stringer("kind", kind),
		zap.Uint64("window", cfg.SyncWindow),
		zap.String("store", cfg.Store.Backend),
	)

	processed, err := syncer.Sync(ctx, address, kind)
	if err != nil {
		return err
	}
	logger.Info("sync complete", zap.Int("processed", processed))
	return nil
}
