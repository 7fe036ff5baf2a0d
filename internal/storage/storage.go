package storage

import (
	"context"

	"agreementIndexer/internal/model"
)

// Gateway persists indexing output. Every write is a keyed upsert, so callers may
// write the same record any number of times and from concurrent goroutines.
type Gateway interface {
	// UpsertClonedContract is keyed on the contract address.
	UpsertClonedContract(ctx context.Context, contract model.ClonedContract) error
	// UpsertTransaction is keyed on (tx hash, log index).
	UpsertTransaction(ctx context.Context, tx model.NormalizedTransaction) error
}

// CursorStore persists named block cursors.
type CursorStore interface {
	LoadCursor(ctx context.Context, name string) (uint64, bool, error)
	SaveCursor(ctx context.Context, name string, block uint64) error
}

// Store is a Gateway that also keeps cursors.
type Store interface {
	Gateway
	CursorStore
	Close()
}
