// Package sqlite is an embedded Gateway for local runs; it needs no cgo.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"agreementIndexer/internal/model"
)

const writeTimeout = 10 * time.Second

type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path. ":memory:" is accepted.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS cloned_contracts (
			address TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			creator TEXT NOT NULL,
			creation_block INTEGER NOT NULL,
			creation_tx_hash TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			label TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS contract_transactions (
			tx_hash TEXT NOT NULL,
			log_index INTEGER NOT NULL,
			chain_id INTEGER NOT NULL,
			contract_address TEXT NOT NULL,
			contract_kind TEXT NOT NULL,
			tx_type TEXT NOT NULL,
			event_name TEXT NOT NULL,
			payload TEXT NOT NULL,
			block_number INTEGER NOT NULL,
			block_timestamp INTEGER NOT NULL,
			initiator TEXT,
			amount TEXT,
			PRIMARY KEY (tx_hash, log_index)
		)`,
		`CREATE TABLE IF NOT EXISTS indexer_state (
			name TEXT PRIMARY KEY,
			last_processed_block INTEGER NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() {
	_ = s.db.Close()
}

func (s *Store) UpsertClonedContract(ctx context.Context, contract model.ClonedContract) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	config, err := json.Marshal(nonNilConfig(contract.Config))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO cloned_contracts (address, kind, creator, creation_block, creation_tx_hash, config, label)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			kind = excluded.kind,
			creator = excluded.creator,
			creation_block = excluded.creation_block,
			creation_tx_hash = excluded.creation_tx_hash,
			config = CASE WHEN cloned_contracts.config = '{}' THEN excluded.config ELSE cloned_contracts.config END,
			label = COALESCE(cloned_contracts.label, excluded.label)`,
		contract.Address, contract.Kind, contract.Creator, int64(contract.CreationBlock),
		contract.CreationTxHash, string(config), contract.Label)
	return err
}

func (s *Store) UpsertTransaction(ctx context.Context, tx model.NormalizedTransaction) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	payload, err := json.Marshal(tx.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO contract_transactions (
			tx_hash, log_index, chain_id, contract_address, contract_kind, tx_type, event_name,
			payload, block_number, block_timestamp, initiator, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tx_hash, log_index) DO UPDATE SET
			chain_id = excluded.chain_id,
			contract_address = excluded.contract_address,
			contract_kind = excluded.contract_kind,
			tx_type = excluded.tx_type,
			event_name = excluded.event_name,
			payload = excluded.payload,
			block_number = excluded.block_number,
			block_timestamp = excluded.block_timestamp,
			initiator = excluded.initiator,
			amount = excluded.amount`,
		tx.TxHash, int64(tx.LogIndex), int64(tx.ChainID), tx.ContractAddress, tx.ContractKind,
		string(tx.Type), tx.EventName, string(payload), int64(tx.BlockNumber),
		tx.BlockTimestamp.Unix(), tx.Initiator, tx.Amount)
	return err
}

func (s *Store) LoadCursor(ctx context.Context, name string) (uint64, bool, error) {
	var block int64
	err := s.db.QueryRowContext(ctx, `SELECT last_processed_block FROM indexer_state WHERE name = ?`, name).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(block), true, nil
}

func (s *Store) SaveCursor(ctx context.Context, name string, block uint64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO indexer_state (name, last_processed_block) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET last_processed_block = excluded.last_processed_block`, name, int64(block))
	return err
}

func nonNilConfig(config map[string]string) map[string]string {
	if config == nil {
		return map[string]string{}
	}
	return config
}
