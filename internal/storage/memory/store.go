// Package memory keeps indexing output in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"agreementIndexer/internal/model"
)

// Store is an in-memory Gateway and CursorStore.
type Store struct {
	mu           sync.RWMutex
	contracts    map[string]model.ClonedContract
	transactions map[model.TxKey]model.NormalizedTransaction
	cursors      map[string]uint64
	writes       int
}

func NewStore() *Store {
	return &Store{
		contracts:    make(map[string]model.ClonedContract),
		transactions: make(map[model.TxKey]model.NormalizedTransaction),
		cursors:      make(map[string]uint64),
	}
}

// UpsertClonedContract inserts or updates a contract. Label and a non-empty
// config survive the update.
func (s *Store) UpsertClonedContract(_ context.Context, contract model.ClonedContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.contracts[contract.Address]; ok {
		if existing.Label != nil {
			contract.Label = existing.Label
		}
		if len(existing.Config) > 0 {
			contract.Config = existing.Config
		}
	}
	s.contracts[contract.Address] = contract
	return nil
}

// UpsertTransaction inserts or overwrites a transaction by key.
func (s *Store) UpsertTransaction(_ context.Context, tx model.NormalizedTransaction) error {
	s.mu.Lock()
	s.transactions[tx.Key()] = tx
	s.writes++
	s.mu.Unlock()
	return nil
}

func (s *Store) LoadCursor(_ context.Context, name string) (uint64, bool, error) {
	s.mu.RLock()
	block, ok := s.cursors[name]
	s.mu.RUnlock()
	return block, ok, nil
}

func (s *Store) SaveCursor(_ context.Context, name string, block uint64) error {
	s.mu.Lock()
	s.cursors[name] = block
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() {}

// Contract returns a stored contract.
func (s *Store) Contract(address string) (model.ClonedContract, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[address]
	return c, ok
}

// Transaction returns a stored transaction.
func (s *Store) Transaction(key model.TxKey) (model.NormalizedTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[key]
	return tx, ok
}

// Transactions returns all stored transactions ordered by block and log index.
func (s *Store) Transactions() []model.NormalizedTransaction {
	s.mu.RLock()
	out := make([]model.NormalizedTransaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber == out[j].BlockNumber {
			return out[i].LogIndex < out[j].LogIndex
		}
		return out[i].BlockNumber < out[j].BlockNumber
	})
	return out
}

// Writes counts UpsertTransaction calls, including overwrites.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
