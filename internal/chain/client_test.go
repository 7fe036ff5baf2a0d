package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestNewClientRejectsUnknownScheme(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{URL: "invalid://endpoint", Timeout: time.Second}); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestBeginAppliesTimeout(t *testing.T) {
	c := &Client{timeout: 50 * time.Millisecond}
	ctx, cancel, err := c.begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer cancel()

	if _, ok := ctx.Deadline(); !ok {
		t.Fatalf("expected deadline on call context")
	}
}

func TestBeginWithoutTimeout(t *testing.T) {
	c := &Client{}
	ctx, cancel, err := c.begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer cancel()

	if _, ok := ctx.Deadline(); ok {
		t.Fatalf("unexpected deadline")
	}
}

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []interface{}   `json:"params"`
}

func newRPCServer(t *testing.T, results map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			result = "null"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestTransactionSender(t *testing.T) {
	server, _ := newRPCServer(t, map[string]string{
		"eth_getTransactionByHash": `{"from":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb","type":"0x7e"}`,
	})
	client, err := NewClient(context.Background(), Config{URL: server.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	sender, err := client.TransactionSender(context.Background(), common.HexToHash("0x01"))
	if err != nil {
		t.Fatalf("sender: %v", err)
	}
	if sender != common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb") {
		t.Fatalf("sender = %s", sender.Hex())
	}
}

func TestTransactionSenderNotFound(t *testing.T) {
	server, _ := newRPCServer(t, map[string]string{})
	client, err := NewClient(context.Background(), Config{URL: server.URL})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.TransactionSender(context.Background(), common.HexToHash("0x01")); !errors.Is(err, ethereum.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLatestBlockNumber(t *testing.T) {
	server, calls := newRPCServer(t, map[string]string{"eth_blockNumber": `"0x64"`})
	client, err := NewClient(context.Background(), Config{URL: server.URL, RateLimit: 100})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	head, err := client.LatestBlockNumber(context.Background())
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head != 100 {
		t.Fatalf("head = %d, want 100", head)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected one rpc call, got %d", atomic.LoadInt32(calls))
	}
}

func TestBlockTimestampUsesCache(t *testing.T) {
	c := &Client{tsCache: map[uint64]uint64{42: 1700000000}}
	ts, err := c.BlockTimestamp(context.Background(), 42)
	if err != nil {
		t.Fatalf("timestamp: %v", err)
	}
	if ts != 1700000000 {
		t.Fatalf("timestamp = %d", ts)
	}
}
