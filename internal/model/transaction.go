package model

import "time"

// NormalizedTransaction is one decoded and classified log of a cloned contract.
// TxHash and LogIndex together identify the record.
type NormalizedTransaction struct {
	ChainID         uint64                 `json:"chain_id"`
	TxHash          string                 `json:"tx_hash"`
	LogIndex        uint64                 `json:"log_index"`
	ContractAddress string                 `json:"contract_address"`
	ContractKind    string                 `json:"contract_kind"`
	Type            TxType                 `json:"tx_type"`
	EventName       string                 `json:"event_name"`
	Payload         map[string]interface{} `json:"payload"`
	BlockNumber     uint64                 `json:"block_number"`
	BlockTimestamp  time.Time              `json:"block_timestamp"`
	Initiator       *string                `json:"initiator"`
	Amount          *string                `json:"amount"`
}

// TxKey is the de-duplication key of a NormalizedTransaction.
type TxKey struct {
	TxHash   string
	LogIndex uint64
}

// Key returns the de-duplication key.
func (t NormalizedTransaction) Key() TxKey {
	return TxKey{TxHash: t.TxHash, LogIndex: t.LogIndex}
}
