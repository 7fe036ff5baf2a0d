package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"agreementIndexer/internal/classify"
	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/model"
	"agreementIndexer/internal/storage"
)

// Syncer synchronizes the history of one contract.
type Syncer interface {
	Sync(ctx context.Context, address common.Address, kind contracts.Kind) (int, error)
}

// CreationHandler registers a freshly created clone, records its deployment and
// runs its first sync.
type CreationHandler struct {
	chainID uint64
	chain   ChainReader
	gateway storage.Gateway
	syncer  Syncer
	retry   RetryPolicy
	logger  *zap.Logger
}

func NewCreationHandler(chainID uint64, chain ChainReader, gateway storage.Gateway, syncer Syncer, retry RetryPolicy, logger *zap.Logger) *CreationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreationHandler{
		chainID: chainID,
		chain:   chain,
		gateway: gateway,
		syncer:  syncer,
		retry:   retry,
		logger:  logger,
	}
}

// Handle processes one decoded creation event. Errors are logged and returned.
func (h *CreationHandler) Handle(ctx context.Context, ev contracts.CreationEvent) error {
	clone := contracts.FormatAddress(ev.Clone)
	logger := h.logger.With(
		zap.String("address", clone),
		zap.Stringer("kind", ev.Kind),
		zap.String("tx_hash", ev.Log.TxHash.Hex()),
	)

	if err := h.handle(ctx, ev, clone); err != nil {
		logger.Error("creation handler failed", zap.Error(err))
		return err
	}
	return nil
}

func (h *CreationHandler) handle(ctx context.Context, ev contracts.CreationEvent, clone string) error {
	contract := model.ClonedContract{
		Address:        clone,
		Kind:           ev.Kind.String(),
		Creator:        contracts.FormatAddress(ev.Creator),
		CreationBlock:  ev.Log.BlockNumber,
		CreationTxHash: ev.Log.TxHash.Hex(),
		Config:         map[string]string{},
	}
	err := h.retry.do(ctx, func(ctx context.Context) error {
		return h.gateway.UpsertClonedContract(ctx, contract)
	})
	if err != nil {
		return fmt.Errorf("store contract: %w", err)
	}

	var ts uint64
	err = h.retry.do(ctx, func(ctx context.Context) error {
		var err error
		ts, err = h.chain.BlockTimestamp(ctx, ev.Log.BlockNumber)
		return err
	})
	if err != nil {
		return fmt.Errorf("block timestamp %d: %w", ev.Log.BlockNumber, err)
	}

	result := classify.ClassifyCreation(ev.Fields)
	record := buildTransaction(h.chainID, ev.Kind, ev.Log, ev.EventName, ev.Fields, result, ts)
	record.ContractAddress = clone
	err = h.retry.do(ctx, func(ctx context.Context) error {
		return h.gateway.UpsertTransaction(ctx, record)
	})
	if err != nil {
		return fmt.Errorf("store deployment: %w", err)
	}

	processed, err := h.syncer.Sync(ctx, ev.Clone, ev.Kind)
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	h.logger.Info("clone registered",
		zap.String("address", clone),
		zap.Stringer("kind", ev.Kind),
		zap.Uint64("block_number", ev.Log.BlockNumber),
		zap.Int("synced", processed),
	)
	return nil
}
