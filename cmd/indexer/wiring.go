package main

import (
	"context"
	"fmt"

	"agreementIndexer/internal/chain"
	"agreementIndexer/internal/config"
	"agreementIndexer/internal/indexer"
	"agreementIndexer/internal/storage"
	"agreementIndexer/internal/storage/memory"
	"agreementIndexer/internal/storage/postgres"
	"agreementIndexer/internal/storage/sqlite"
)

func newChainClient(ctx context.Context, cfg config.ChainConfig) (*chain.Client, error) {
	client, err := chain.NewClient(ctx, chain.Config{
		URL:       cfg.RPCURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	return client, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	case config.StoreMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

// openCursorStore returns nil for the memory cursor, which reseeds from the head on
// every start.
func openCursorStore(cfg config.Config, store storage.Store) (storage.CursorStore, error) {
	switch cfg.Cursor {
	case config.CursorMemory:
		return nil, nil
	case config.CursorStore:
		return store, nil
	case config.CursorFile:
		return indexer.NewFileCursorStore(cfg.Checkpoint)
	default:
		return nil, fmt.Errorf("unknown cursor backend: %q", cfg.Cursor)
	}
}
