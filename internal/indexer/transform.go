package indexer

import (
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"agreementIndexer/internal/classify"
	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/model"
)

func buildTransaction(
	chainID uint64,
	kind contracts.Kind,
	log types.Log,
	eventName string,
	fields map[string]interface{},
	result classify.Result,
	timestamp uint64,
) model.NormalizedTransaction {
	return model.NormalizedTransaction{
		ChainID:         chainID,
		TxHash:          log.TxHash.Hex(),
		LogIndex:        uint64(log.Index),
		ContractAddress: contracts.FormatAddress(log.Address),
		ContractKind:    kind.String(),
		Type:            result.Type,
		EventName:       eventName,
		Payload:         contracts.Payload(fields),
		BlockNumber:     log.BlockNumber,
		BlockTimestamp:  time.Unix(int64(timestamp), 0).UTC(),
		Initiator:       result.Initiator,
		Amount:          result.Amount,
	}
}
