package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/metrics"
)

// ErrChainMismatch means the node serves a different chain than configured.
var ErrChainMismatch = errors.New("chain id mismatch")

// startupFailureThreshold is the number of consecutive head failures before the
// cursor is seeded that escalate logging from Warn to Error.
const startupFailureThreshold = 3

// CreationDispatcher receives decoded creation events.
type CreationDispatcher interface {
	Handle(ctx context.Context, ev contracts.CreationEvent) error
}

// PollerConfig controls the factory poll loop.
type PollerConfig struct {
	ChainID            uint64
	Factory            common.Address
	Interval           time.Duration
	StartupLookback    uint64
	MaxBlockRange      uint64
	HandlerConcurrency int
	Retry              RetryPolicy
}

// Poller watches the factory for clone creation events and dispatches them.
type Poller struct {
	cfg      PollerConfig
	chain    ChainReader
	registry *contracts.Registry
	handler  CreationDispatcher
	cursor   *Cursor
	logger   *zap.Logger

	chainVerified bool
	headFailures  int
}

func NewPoller(cfg PollerConfig, chain ChainReader, registry *contracts.Registry, handler CreationDispatcher, cursor *Cursor, logger *zap.Logger) (*Poller, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain reader is nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("creation handler is nil")
	}
	if cursor == nil {
		return nil, fmt.Errorf("cursor is nil")
	}
	if cfg.Factory == (common.Address{}) {
		return nil, fmt.Errorf("factory address is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be greater than zero")
	}
	if cfg.MaxBlockRange == 0 {
		return nil, fmt.Errorf("max block range must be greater than zero")
	}
	if cfg.HandlerConcurrency <= 0 {
		cfg.HandlerConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		cfg:      cfg,
		chain:    chain,
		registry: registry,
		handler:  handler,
		cursor:   cursor,
		logger:   logger.With(zap.String("factory", contracts.FormatAddress(cfg.Factory))),
	}, nil
}

// Run ticks until ctx is cancelled. Only a chain id mismatch stops it early.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", zap.Duration("interval", p.cfg.Interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-timer.C:
		}

		if err := p.Tick(ctx); err != nil {
			if errors.Is(err, ErrChainMismatch) {
				return err
			}
			if ctx.Err() != nil {
				continue
			}
		}
		// The delay starts after the tick completes, so ticks never overlap.
		timer.Reset(p.cfg.Interval)
	}
}

// Tick runs one poll iteration: read the head, fetch creation logs for every
// kind since the cursor, dispatch them and advance the cursor.
func (p *Poller) Tick(ctx context.Context) error {
	if err := p.verifyChain(ctx); err != nil {
		if errors.Is(err, ErrChainMismatch) {
			metrics.PollTicks.WithLabelValues("error").Inc()
		}
		return err
	}

	var head uint64
	err := p.cfg.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		head, err = p.chain.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		p.headFailed(err)
		return fmt.Errorf("get head: %w", err)
	}
	p.headFailures = 0

	last, seeded := p.cursor.Position()
	if !seeded {
		resumed, err := p.cursor.Seed(ctx, head, p.cfg.StartupLookback)
		if err != nil {
			metrics.PollTicks.WithLabelValues("error").Inc()
			p.logger.Error("seed cursor failed", zap.Error(err))
			return err
		}
		last, _ = p.cursor.Position()
		p.logger.Info("cursor seeded", zap.String("cursor", p.cursor.Name()), zap.Uint64("last_processed", last), zap.Bool("resumed", resumed))
	}

	if head <= last {
		metrics.PollTicks.WithLabelValues("idle").Inc()
		return nil
	}

	ranges, err := SplitRange(last+1, head, p.cfg.MaxBlockRange)
	if err != nil {
		metrics.PollTicks.WithLabelValues("error").Inc()
		return err
	}

	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		dispatched := p.processRange(ctx, r)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.cursor.Advance(ctx, r.To); err != nil {
			p.logger.Error("persist cursor failed", zap.Error(err), zap.Uint64("block", r.To))
		}
		p.logger.Info("factory range processed", zap.Uint64("from", r.From), zap.Uint64("to", r.To), zap.Int("creations", dispatched))
	}

	metrics.PollTicks.WithLabelValues("ok").Inc()
	return nil
}

func (p *Poller) verifyChain(ctx context.Context) error {
	if p.chainVerified || p.cfg.ChainID == 0 {
		return nil
	}

	var id uint64
	err := p.cfg.Retry.do(ctx, func(ctx context.Context) error {
		chainID, err := p.chain.GetChainID(ctx)
		if err != nil {
			return err
		}
		if !chainID.IsUint64() {
			return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
		}
		id = chainID.Uint64()
		return nil
	})
	if err != nil {
		p.headFailed(err)
		return fmt.Errorf("get chain id: %w", err)
	}
	if id != p.cfg.ChainID {
		p.logger.Error("node serves a different chain", zap.Uint64("expected", p.cfg.ChainID), zap.Uint64("actual", id))
		return fmt.Errorf("%w: expected %d, node reports %d", ErrChainMismatch, p.cfg.ChainID, id)
	}
	p.chainVerified = true
	return nil
}

func (p *Poller) headFailed(err error) {
	metrics.PollTicks.WithLabelValues("head_error").Inc()
	metrics.RPCErrors.WithLabelValues("eth_blockNumber").Inc()

	if _, seeded := p.cursor.Position(); seeded {
		p.logger.Warn("head fetch failed, skipping tick", zap.Error(err))
		return
	}
	p.headFailures++
	if p.headFailures >= startupFailureThreshold {
		p.logger.Error("chain not reachable", zap.Error(err), zap.Int("consecutive_failures", p.headFailures))
		return
	}
	p.logger.Warn("chain not reachable yet", zap.Error(err), zap.Int("consecutive_failures", p.headFailures))
}

// processRange fetches creation logs of every kind concurrently and dispatches
// them. A failed fetch loses that kind's logs for this range only.
func (p *Poller) processRange(ctx context.Context, r BlockRange) int {
	kinds := contracts.Kinds()
	results := make([][]types.Log, len(kinds))

	var fetch errgroup.Group
	for i, kind := range kinds {
		fetch.Go(func() error {
			logs, err := p.fetchCreations(ctx, r, kind)
			if err != nil {
				metrics.RPCErrors.WithLabelValues("eth_getLogs").Inc()
				p.logger.Warn("creation log fetch failed",
					zap.Stringer("kind", kind),
					zap.Uint64("from", r.From),
					zap.Uint64("to", r.To),
					zap.Error(err),
				)
				return nil
			}
			results[i] = logs
			return nil
		})
	}
	_ = fetch.Wait()

	dispatch := errgroup.Group{}
	dispatch.SetLimit(p.cfg.HandlerConcurrency)
	count := 0
	for _, logs := range results {
		for _, log := range logs {
			ev, err := p.registry.DecodeCreation(log)
			if err != nil {
				p.logger.Warn("skip undecodable creation log", zap.String("tx_hash", log.TxHash.Hex()), zap.Uint("log_index", log.Index), zap.Error(err))
				continue
			}
			count++
			metrics.CreationEvents.WithLabelValues(ev.Kind.String()).Inc()
			dispatch.Go(func() error {
				if err := p.handler.Handle(ctx, ev); err != nil {
					metrics.HandlerFailures.WithLabelValues(ev.Kind.String()).Inc()
				}
				return nil
			})
		}
	}
	_ = dispatch.Wait()

	return count
}

func (p *Poller) fetchCreations(ctx context.Context, r BlockRange, kind contracts.Kind) ([]types.Log, error) {
	topic, err := p.registry.CreationTopic(kind)
	if err != nil {
		return nil, err
	}

	var logs []types.Log
	err = p.cfg.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = p.chain.FilterLogs(ctx, r.From, r.To, []common.Address{p.cfg.Factory}, []common.Hash{topic})
		return err
	})
	return logs, err
}
