package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"agreementIndexer/internal/classify"
	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/metrics"
	"agreementIndexer/internal/storage"
)

// SyncConfig controls per-contract synchronization.
type SyncConfig struct {
	ChainID       uint64
	Window        uint64
	MaxBlockRange uint64
	Retry         RetryPolicy
}

// Synchronizer rebuilds the transaction history of one contract over a bounded
// window ending at the chain head. Every write is a keyed upsert, so runs may
// overlap and repeat freely.
type Synchronizer struct {
	cfg      SyncConfig
	chain    ChainReader
	registry *contracts.Registry
	gateway  storage.Gateway
	logger   *zap.Logger
}

func NewSynchronizer(cfg SyncConfig, chain ChainReader, registry *contracts.Registry, gateway storage.Gateway, logger *zap.Logger) (*Synchronizer, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain reader is nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if cfg.Window == 0 {
		return nil, fmt.Errorf("sync window must be greater than zero")
	}
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = cfg.Window + 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{cfg: cfg, chain: chain, registry: registry, gateway: gateway, logger: logger}, nil
}

// Sync fetches, decodes, classifies and persists the logs of address and returns
// the number of logs stored. Undecodable logs are skipped; persistence failures
// abort the run.
func (s *Synchronizer) Sync(ctx context.Context, address common.Address, kind contracts.Kind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %s", contracts.ErrUnknownKind, kind)
	}
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	}()

	logger := s.logger.With(zap.String("address", contracts.FormatAddress(address)), zap.Stringer("kind", kind))

	var head uint64
	err := s.cfg.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		head, err = s.chain.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		metrics.RPCErrors.WithLabelValues("eth_blockNumber").Inc()
		return 0, fmt.Errorf("get head: %w", err)
	}

	window := Window(head, s.cfg.Window)
	logs, err := s.fetchLogs(ctx, address, window)
	if err != nil {
		return 0, err
	}
	sortLogs(logs)

	processed := 0
	for _, log := range logs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		ok, err := s.process(ctx, logger, kind, log)
		if err != nil {
			return processed, err
		}
		if ok {
			processed++
		}
	}

	logger.Info("contract synced",
		zap.Uint64("from", window.From),
		zap.Uint64("to", window.To),
		zap.Int("logs", len(logs)),
		zap.Int("processed", processed),
	)
	return processed, nil
}

func (s *Synchronizer) fetchLogs(ctx context.Context, address common.Address, window BlockRange) ([]types.Log, error) {
	ranges, err := SplitRange(window.From, window.To, s.cfg.MaxBlockRange)
	if err != nil {
		return nil, err
	}

	var logs []types.Log
	for _, r := range ranges {
		var batch []types.Log
		err := s.cfg.Retry.do(ctx, func(ctx context.Context) error {
			var err error
			batch, err = s.chain.FilterLogs(ctx, r.From, r.To, []common.Address{address}, nil)
			if err != nil {
				s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", r.From), zap.Uint64("to", r.To))
			}
			return err
		})
		if err != nil {
			metrics.RPCErrors.WithLabelValues("eth_getLogs").Inc()
			return nil, fmt.Errorf("filter logs %d-%d: %w", r.From, r.To, err)
		}
		logs = append(logs, batch...)
	}
	return logs, nil
}

// process handles one log and reports whether it was stored.
func (s *Synchronizer) process(ctx context.Context, logger *zap.Logger, kind contracts.Kind, log types.Log) (bool, error) {
	logFields := []zap.Field{
		zap.String("tx_hash", log.TxHash.Hex()),
		zap.Uint("log_index", log.Index),
		zap.Uint64("block_number", log.BlockNumber),
	}

	if log.Removed {
		metrics.LogsSkipped.WithLabelValues(kind.String(), "removed").Inc()
		logger.Debug("skip removed log", logFields...)
		return false, nil
	}

	event, err := s.registry.Decode(kind, log)
	if err != nil {
		metrics.LogsSkipped.WithLabelValues(kind.String(), "decode").Inc()
		logger.Warn("skip undecodable log", append(logFields, zap.Error(err))...)
		return false, nil
	}

	result := classify.Classify(event.Name, event.Fields)

	var ts uint64
	err = s.cfg.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		ts, err = s.chain.BlockTimestamp(ctx, log.BlockNumber)
		return err
	})
	if err != nil {
		metrics.RPCErrors.WithLabelValues("eth_getBlockByNumber").Inc()
		return false, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
	}

	if result.NeedsSender() {
		result.Initiator = s.resolveSender(ctx, logger, log)
	}

	record := buildTransaction(s.cfg.ChainID, kind, log, event.Name, event.Fields, result, ts)
	err = s.cfg.Retry.do(ctx, func(ctx context.Context) error {
		return s.gateway.UpsertTransaction(ctx, record)
	})
	if err != nil {
		logger.Error("store transaction failed", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("store transaction %s/%d: %w", record.TxHash, record.LogIndex, err)
	}

	metrics.LogsProcessed.WithLabelValues(kind.String(), string(record.Type)).Inc()
	return true, nil
}

// resolveSender falls back to the transaction sender. Failure leaves the
// initiator empty.
func (s *Synchronizer) resolveSender(ctx context.Context, logger *zap.Logger, log types.Log) *string {
	var sender common.Address
	err := s.cfg.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		sender, err = s.chain.TransactionSender(ctx, log.TxHash)
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		metrics.RPCErrors.WithLabelValues("eth_getTransactionByHash").Inc()
		logger.Warn("resolve transaction sender failed", zap.String("tx_hash", log.TxHash.Hex()), zap.Error(err))
		return nil
	}
	formatted := contracts.FormatAddress(sender)
	return &formatted
}

func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}
