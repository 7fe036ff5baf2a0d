package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agreementIndexer/internal/model"
)

// Store provides Postgres persistence for contracts, transactions and cursors.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertClonedContract inserts or updates contract metadata. The label and a
// populated config are owned by other writers and are left alone.
func (s *Store) UpsertClonedContract(ctx context.Context, contract model.ClonedContract) error {
	config, err := marshalObject(contract.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO cloned_contracts (
			address, kind, creator, creation_block, creation_tx_hash, config, label, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, now(), now())
		ON CONFLICT (address)
		DO UPDATE SET
			kind = EXCLUDED.kind,
			creator = EXCLUDED.creator,
			creation_block = EXCLUDED.creation_block,
			creation_tx_hash = EXCLUDED.creation_tx_hash,
			config = CASE
				WHEN cloned_contracts.config = '{}'::jsonb THEN EXCLUDED.config
				ELSE cloned_contracts.config
			END,
			label = COALESCE(cloned_contracts.label, EXCLUDED.label),
			updated_at = now()
	`,
		contract.Address,
		contract.Kind,
		contract.Creator,
		int64(contract.CreationBlock),
		contract.CreationTxHash,
		config,
		contract.Label,
	)
	return err
}

// UpsertTransaction inserts or overwrites a transaction keyed on (tx_hash, log_index).
func (s *Store) UpsertTransaction(ctx context.Context, tx model.NormalizedTransaction) error {
	payload, err := marshalObject(tx.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO contract_transactions (
			tx_hash, log_index, chain_id, contract_address, contract_kind, tx_type, event_name,
			payload, block_number, block_timestamp, initiator, amount, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10,$11,$12,now(),now())
		ON CONFLICT (tx_hash, log_index)
		DO UPDATE SET
			chain_id = EXCLUDED.chain_id,
			contract_address = EXCLUDED.contract_address,
			contract_kind = EXCLUDED.contract_kind,
			tx_type = EXCLUDED.tx_type,
			event_name = EXCLUDED.event_name,
			payload = EXCLUDED.payload,
			block_number = EXCLUDED.block_number,
			block_timestamp = EXCLUDED.block_timestamp,
			initiator = EXCLUDED.initiator,
			amount = EXCLUDED.amount,
			updated_at = now()
	`,
		tx.TxHash,
		int64(tx.LogIndex),
		int64(tx.ChainID),
		tx.ContractAddress,
		tx.ContractKind,
		string(tx.Type),
		tx.EventName,
		payload,
		int64(tx.BlockNumber),
		tx.BlockTimestamp,
		tx.Initiator,
		tx.Amount,
	)
	return err
}

// LoadCursor returns last_processed_block for a name.
func (s *Store) LoadCursor(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("cursor name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveCursor upserts last_processed_block for a name.
func (s *Store) SaveCursor(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("cursor name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

func marshalObject[T any](value map[string]T) (string, error) {
	if value == nil {
		return "{}", nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
