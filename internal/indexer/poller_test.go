package indexer

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/storage/memory"
	"agreementIndexer/internal/testutil"
)

var testFactory = testutil.Address(0xfa)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []contracts.CreationEvent
	failOn map[contracts.Kind]bool
}

func (d *recordingDispatcher) Handle(_ context.Context, ev contracts.CreationEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	if d.failOn[ev.Kind] {
		return errors.New("handler failed")
	}
	return nil
}

func (d *recordingDispatcher) handled() []contracts.CreationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]contracts.CreationEvent(nil), d.events...)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func newTestPoller(t *testing.T, chain *fakeChain, dispatcher CreationDispatcher, cursor *Cursor, chainID uint64) *Poller {
	t.Helper()
	poller, err := NewPoller(PollerConfig{
		ChainID:            chainID,
		Factory:            testFactory,
		Interval:           time.Millisecond,
		StartupLookback:    2,
		MaxBlockRange:      10000,
		HandlerConcurrency: 4,
	}, chain, testRegistry(t), dispatcher, cursor, nil)
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}
	return poller
}

func rentVaultCreated(t *testing.T, reg *contracts.Registry, clone common.Address, meta testutil.LogMeta) types.Log {
	t.Helper()
	return testutil.BuildLog(t, reg.FactoryABI(), "RentVaultCreated", testFactory, meta, map[string]interface{}{
		"vault":      clone,
		"creator":    testutil.Address(0xc1),
		"landlord":   testutil.Address(0xc2),
		"tenant":     testutil.Address(0xc3),
		"rentAmount": big.NewInt(1500),
		"dueDate":    big.NewInt(1735689600),
	})
}

func groupBuyEscrowCreated(t *testing.T, reg *contracts.Registry, clone common.Address, meta testutil.LogMeta) types.Log {
	t.Helper()
	return testutil.BuildLog(t, reg.FactoryABI(), "GroupBuyEscrowCreated", testFactory, meta, map[string]interface{}{
		"escrow":              clone,
		"creator":             testutil.Address(0xd1),
		"recipient":           testutil.Address(0xd2),
		"fundingGoal":         big.NewInt(10000),
		"expiryDate":          big.NewInt(1735689600),
		"timelockRefundDelay": big.NewInt(86400),
	})
}

func TestTickRequestsExactRange(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(105)
	cursor := NewCursor("factory", nil)
	if _, err := cursor.Seed(ctx, 102, 2); err != nil {
		t.Fatalf("seed: %v", err)
	}

	poller := newTestPoller(t, chain, &recordingDispatcher{}, cursor, 0)
	if err := poller.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	reg := testRegistry(t)
	calls := chain.calls()
	if len(calls) != len(contracts.Kinds()) {
		t.Fatalf("got %d log queries, want one per kind", len(calls))
	}
	seen := make(map[common.Hash]bool)
	for _, call := range calls {
		if call.From != 101 || call.To != 105 {
			t.Fatalf("query range %d-%d, want 101-105", call.From, call.To)
		}
		if len(call.Addresses) != 1 || call.Addresses[0] != testFactory {
			t.Fatalf("query addresses %v", call.Addresses)
		}
		if len(call.Topic0) != 1 {
			t.Fatalf("query topics %v", call.Topic0)
		}
		seen[call.Topic0[0]] = true
	}
	for _, kind := range contracts.Kinds() {
		topic, _ := reg.CreationTopic(kind)
		if !seen[topic] {
			t.Fatalf("no query for %s creation topic", kind)
		}
	}

	if block, _ := cursor.Position(); block != 105 {
		t.Fatalf("cursor = %d, want 105", block)
	}
}

func TestTickNoopWhenHeadHasNotMoved(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(100)
	cursor := NewCursor("factory", nil)
	_, _ = cursor.Seed(ctx, 100, 0)

	poller := newTestPoller(t, chain, &recordingDispatcher{}, cursor, 0)
	if err := poller.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if calls := chain.calls(); len(calls) != 0 {
		t.Fatalf("expected no log queries, got %+v", calls)
	}
	if block, _ := cursor.Position(); block != 100 {
		t.Fatalf("cursor = %d, want 100", block)
	}
}

func TestTickSeedsFromHeadMinusLookback(t *testing.T) {
	chain := newFakeChain(50)
	cursor := NewCursor("factory", nil)

	poller := newTestPoller(t, chain, &recordingDispatcher{}, cursor, 0)
	if err := poller.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	for _, call := range chain.calls() {
		if call.From != 49 || call.To != 50 {
			t.Fatalf("query range %d-%d, want 49-50", call.From, call.To)
		}
	}
}

func TestTickResumesPersistedCursor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.SaveCursor(ctx, "factory", 80); err != nil {
		t.Fatalf("save: %v", err)
	}

	chain := newFakeChain(90)
	cursor := NewCursor("factory", store)
	poller := newTestPoller(t, chain, &recordingDispatcher{}, cursor, 0)
	if err := poller.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	for _, call := range chain.calls() {
		if call.From != 81 || call.To != 90 {
			t.Fatalf("query range %d-%d, want 81-90", call.From, call.To)
		}
	}
	if block, ok, _ := store.LoadCursor(ctx, "factory"); !ok || block != 90 {
		t.Fatalf("persisted cursor = %d %v, want 90", block, ok)
	}
}

func TestTickDispatchesAndIsolatesHandlerFailures(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	vault := testutil.Address(0x11)
	escrow := testutil.Address(0x22)

	chain := newFakeChain(105)
	chain.logs = append(chain.logs,
		rentVaultCreated(t, reg, vault, testutil.LogMeta{BlockNumber: 102, TxHash: testutil.Hash(0x01), LogIndex: 0}),
		groupBuyEscrowCreated(t, reg, escrow, testutil.LogMeta{BlockNumber: 104, TxHash: testutil.Hash(0x02), LogIndex: 1}),
	)

	cursor := NewCursor("factory", nil)
	_, _ = cursor.Seed(ctx, 100, 0)
	dispatcher := &recordingDispatcher{failOn: map[contracts.Kind]bool{contracts.RentVault: true}}

	poller := newTestPoller(t, chain, dispatcher, cursor, 0)
	if err := poller.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	handled := dispatcher.handled()
	if len(handled) != 2 {
		t.Fatalf("handled %d events, want 2", len(handled))
	}
	if handled[0].Kind != contracts.RentVault || handled[0].Clone != vault {
		t.Fatalf("unexpected rent vault event: %+v", handled[0])
	}
	if handled[1].Kind != contracts.GroupBuyEscrow || handled[1].Clone != escrow {
		t.Fatalf("unexpected escrow event: %+v", handled[1])
	}
	if block, _ := cursor.Position(); block != 105 {
		t.Fatalf("cursor = %d, want 105 despite handler failure", block)
	}
}

func TestTickFetchFailureLosesOnlyThatKind(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)

	chain := newFakeChain(105)
	chain.logs = append(chain.logs,
		rentVaultCreated(t, reg, testutil.Address(0x11), testutil.LogMeta{BlockNumber: 102, TxHash: testutil.Hash(0x01)}),
		groupBuyEscrowCreated(t, reg, testutil.Address(0x22), testutil.LogMeta{BlockNumber: 103, TxHash: testutil.Hash(0x02)}),
	)
	rentTopic, _ := reg.CreationTopic(contracts.RentVault)
	chain.topicErrs[rentTopic] = errors.New("rpc timeout")

	cursor := NewCursor("factory", nil)
	_, _ = cursor.Seed(ctx, 100, 0)
	dispatcher := &recordingDispatcher{}

	poller := newTestPoller(t, chain, dispatcher, cursor, 0)
	if err := poller.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	handled := dispatcher.handled()
	if len(handled) != 1 || handled[0].Kind != contracts.GroupBuyEscrow {
		t.Fatalf("unexpected dispatch: %+v", handled)
	}
	if block, _ := cursor.Position(); block != 105 {
		t.Fatalf("cursor = %d, want 105", block)
	}
}

func TestTickHeadFailureLeavesCursorUnseeded(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(100)
	chain.headErr = errors.New("connection refused")
	cursor := NewCursor("factory", nil)

	poller := newTestPoller(t, chain, &recordingDispatcher{}, cursor, 0)
	for i := 0; i < startupFailureThreshold; i++ {
		if err := poller.Tick(ctx); err == nil {
			t.Fatalf("expected head error")
		}
	}
	if _, ok := cursor.Position(); ok {
		t.Fatalf("cursor should stay unseeded while the chain is unreachable")
	}
	if poller.headFailures != startupFailureThreshold {
		t.Fatalf("head failures = %d", poller.headFailures)
	}

	chain.mu.Lock()
	chain.headErr = nil
	chain.mu.Unlock()
	if err := poller.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if block, ok := cursor.Position(); !ok || block != 98 {
		t.Fatalf("cursor = %d %v, want 98", block, ok)
	}
	if poller.headFailures != 0 {
		t.Fatalf("head failures not reset")
	}
}

func TestRunStopsOnChainMismatch(t *testing.T) {
	chain := newFakeChain(100)
	poller := newTestPoller(t, chain, &recordingDispatcher{}, NewCursor("factory", nil), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := poller.Run(ctx); !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("expected chain mismatch, got %v", err)
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	chain := newFakeChain(100)
	poller := newTestPoller(t, chain, &recordingDispatcher{}, NewCursor("factory", nil), 84532)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := poller.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if block, ok := poller.cursor.Position(); !ok || block != 100 {
		t.Fatalf("cursor = %d %v, want 100", block, ok)
	}
}

func TestNewPollerValidatesConfig(t *testing.T) {
	reg := testRegistry(t)
	chain := newFakeChain(1)
	cursor := NewCursor("factory", nil)

	cases := map[string]PollerConfig{
		"missing factory": {Interval: time.Second, MaxBlockRange: 1},
		"zero interval":   {Factory: testFactory, MaxBlockRange: 1},
		"zero range":      {Factory: testFactory, Interval: time.Second},
	}
	for name, cfg := range cases {
		if _, err := NewPoller(cfg, chain, reg, &recordingDispatcher{}, cursor, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
