package postgres

import (
	"context"
	"fmt"
)

// Schema creates the tables used by Store. It is safe to apply repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS cloned_contracts (
	address          TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	creator          TEXT NOT NULL,
	creation_block   BIGINT NOT NULL,
	creation_tx_hash TEXT NOT NULL,
	config           JSONB NOT NULL DEFAULT '{}'::jsonb,
	label            TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contract_transactions (
	tx_hash          TEXT NOT NULL,
	log_index        BIGINT NOT NULL,
	chain_id         BIGINT NOT NULL,
	contract_address TEXT NOT NULL,
	contract_kind    TEXT NOT NULL,
	tx_type          TEXT NOT NULL,
	event_name       TEXT NOT NULL,
	payload          JSONB NOT NULL DEFAULT '{}'::jsonb,
	block_number     BIGINT NOT NULL,
	block_timestamp  TIMESTAMPTZ NOT NULL,
	initiator        TEXT,
	amount           NUMERIC(78, 0),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tx_hash, log_index)
);

CREATE INDEX IF NOT EXISTS contract_transactions_contract_idx
	ON contract_transactions (contract_address, block_number);

CREATE TABLE IF NOT EXISTS indexer_state (
	name                 TEXT PRIMARY KEY,
	last_processed_block BIGINT NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
