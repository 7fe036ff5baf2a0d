package indexer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/model"
)

const baseTimestamp = 1_700_000_000

type filterCall struct {
	From      uint64
	To        uint64
	Addresses []common.Address
	Topic0    []common.Hash
}

type fakeChain struct {
	mu sync.Mutex

	chainID   uint64
	head      uint64
	headErr   error
	logs      []types.Log
	senders   map[common.Hash]common.Address
	senderErr error
	topicErrs map[common.Hash]error

	filterCalls []filterCall
	senderCalls int
}

func newFakeChain(head uint64) *fakeChain {
	return &fakeChain{
		chainID:   84532,
		head:      head,
		senders:   make(map[common.Hash]common.Address),
		topicErrs: make(map[common.Hash]error),
	}
}

func (f *fakeChain) GetChainID(context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(f.chainID), nil
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return 0, f.headErr
	}
	return f.head, nil
}

func (f *fakeChain) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return baseTimestamp + number*2, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, from, to uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filterCalls = append(f.filterCalls, filterCall{From: from, To: to, Addresses: addresses, Topic0: topic0})
	for _, topic := range topic0 {
		if err := f.topicErrs[topic]; err != nil {
			return nil, err
		}
	}

	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		if len(addresses) > 0 && !containsAddress(addresses, log.Address) {
			continue
		}
		if len(topic0) > 0 && (len(log.Topics) == 0 || !containsHash(topic0, log.Topics[0])) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (f *fakeChain) TransactionSender(_ context.Context, hash common.Hash) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.senderCalls++
	if f.senderErr != nil {
		return common.Address{}, f.senderErr
	}
	sender, ok := f.senders[hash]
	if !ok {
		return common.Address{}, errors.New("not found")
	}
	return sender, nil
}

func (f *fakeChain) calls() []filterCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filterCall(nil), f.filterCalls...)
}

func (f *fakeChain) resetCalls() {
	f.mu.Lock()
	f.filterCalls = nil
	f.senderCalls = 0
	f.mu.Unlock()
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, item := range list {
		if item == addr {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, h common.Hash) bool {
	for _, item := range list {
		if item == h {
			return true
		}
	}
	return false
}

type failingGateway struct {
	err error
}

func (g failingGateway) UpsertClonedContract(context.Context, model.ClonedContract) error {
	return g.err
}

func (g failingGateway) UpsertTransaction(context.Context, model.NormalizedTransaction) error {
	return g.err
}

func testRegistry(t *testing.T) *contracts.Registry {
	t.Helper()
	reg, err := contracts.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func kindABI(t *testing.T, reg *contracts.Registry, kind contracts.Kind) *contracts.Schema {
	t.Helper()
	schema, err := reg.Schema(kind)
	if err != nil {
		t.Fatalf("schema %s: %v", kind, err)
	}
	return schema
}
