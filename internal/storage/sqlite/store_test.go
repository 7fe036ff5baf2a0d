package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"agreementIndexer/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestUpsertTransactionIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	initiator := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	amount := "123456789012345678901234567890"
	record := model.NormalizedTransaction{
		ChainID:         84532,
		TxHash:          "0x7478310000000000000000000000000000000000000000000000000000000000",
		LogIndex:        3,
		ContractAddress: "0x1111111111111111111111111111111111111111",
		ContractKind:    "rent-vault",
		Type:            model.TxDeposit,
		EventName:       "Deposited",
		Payload:         map[string]interface{}{"amount": amount},
		BlockNumber:     100,
		BlockTimestamp:  time.Unix(1700000000, 0).UTC(),
		Initiator:       &initiator,
		Amount:          &amount,
	}

	for i := 0; i < 2; i++ {
		if err := store.UpsertTransaction(ctx, record); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM contract_transactions`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	var storedAmount, payload string
	if err := store.db.QueryRow(`SELECT amount, payload FROM contract_transactions WHERE tx_hash = ? AND log_index = ?`, record.TxHash, 3).Scan(&storedAmount, &payload); err != nil {
		t.Fatalf("select: %v", err)
	}
	if storedAmount != amount {
		t.Fatalf("amount = %s", storedAmount)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("payload json: %v", err)
	}
	if decoded["amount"] != amount {
		t.Fatalf("payload amount = %#v", decoded["amount"])
	}
}

func TestUpsertTransactionOverwritesPartialRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	partial := model.NormalizedTransaction{
		TxHash:         "0x01",
		LogIndex:       0,
		Type:           model.TxInteraction,
		Payload:        map[string]interface{}{},
		BlockTimestamp: time.Unix(1, 0),
	}
	if err := store.UpsertTransaction(ctx, partial); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	initiator := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	full := partial
	full.Type = model.TxVote
	full.Initiator = &initiator
	if err := store.UpsertTransaction(ctx, full); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var txType string
	var stored *string
	if err := store.db.QueryRow(`SELECT tx_type, initiator FROM contract_transactions`).Scan(&txType, &stored); err != nil {
		t.Fatalf("select: %v", err)
	}
	if txType != string(model.TxVote) || stored == nil || *stored != initiator {
		t.Fatalf("refined record not stored: %s %v", txType, stored)
	}
}

func TestUpsertClonedContractPreservesLabel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	contract := model.ClonedContract{
		Address:        "0x1111111111111111111111111111111111111111",
		Kind:           "group-buy-escrow",
		Creator:        "0x2222222222222222222222222222222222222222",
		CreationBlock:  10,
		CreationTxHash: "0x03",
	}
	if err := store.UpsertClonedContract(ctx, contract); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.db.Exec(`UPDATE cloned_contracts SET label = 'team-dinner', config = '{"goal":"5"}'`); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if err := store.UpsertClonedContract(ctx, contract); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	var label, config string
	var count int
	if err := store.db.QueryRow(`SELECT label, config, (SELECT COUNT(*) FROM cloned_contracts) FROM cloned_contracts`).Scan(&label, &config, &count); err != nil {
		t.Fatalf("select: %v", err)
	}
	if label != "team-dinner" || config != `{"goal":"5"}` || count != 1 {
		t.Fatalf("enrichment lost: label=%s config=%s count=%d", label, config, count)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadCursor(ctx, "factory:0x01"); err != nil || ok {
		t.Fatalf("expected empty cursor, ok=%v err=%v", ok, err)
	}
	if err := store.SaveCursor(ctx, "factory:0x01", 10); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveCursor(ctx, "factory:0x01", 15); err != nil {
		t.Fatalf("save: %v", err)
	}
	block, ok, err := store.LoadCursor(ctx, "factory:0x01")
	if err != nil || !ok || block != 15 {
		t.Fatalf("load = %d %v %v", block, ok, err)
	}
}
