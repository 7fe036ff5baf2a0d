package indexer

import (
	"context"
	"fmt"

	"agreementIndexer/internal/metrics"
	"agreementIndexer/internal/storage"
)

// Cursor is the last block whose factory logs were fully dispatched. It is owned
// by a single Poller and is not safe for concurrent use.
type Cursor struct {
	name   string
	store  storage.CursorStore
	block  uint64
	seeded bool
}

// NewCursor creates a cursor. A nil store keeps the position in memory only, so
// every start reseeds from the chain head.
func NewCursor(name string, store storage.CursorStore) *Cursor {
	return &Cursor{name: name, store: store}
}

func (c *Cursor) Name() string { return c.name }

// Position returns the last processed block once the cursor is seeded.
func (c *Cursor) Position() (uint64, bool) {
	return c.block, c.seeded
}

// Seed positions the cursor, preferring a persisted value over head - lookback.
// It reports whether the position was resumed from the store.
func (c *Cursor) Seed(ctx context.Context, head, lookback uint64) (bool, error) {
	if c.store != nil {
		block, ok, err := c.store.LoadCursor(ctx, c.name)
		if err != nil {
			return false, fmt.Errorf("load cursor %s: %w", c.name, err)
		}
		if ok {
			c.set(block)
			return true, nil
		}
	}

	if lookback > head {
		lookback = head
	}
	c.set(head - lookback)
	return false, nil
}

// Advance moves the cursor to block and persists it when a store is attached.
// The in-memory position moves even if persisting fails.
func (c *Cursor) Advance(ctx context.Context, block uint64) error {
	c.set(block)
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveCursor(ctx, c.name, block); err != nil {
		return fmt.Errorf("save cursor %s: %w", c.name, err)
	}
	return nil
}

func (c *Cursor) set(block uint64) {
	c.block = block
	c.seeded = true
	metrics.CursorHeight.Set(float64(block))
}
