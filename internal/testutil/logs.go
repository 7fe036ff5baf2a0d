// Package testutil builds ABI-encoded chain fixtures for tests.
package testutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogMeta positions a fixture log on chain.
type LogMeta struct {
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// BuildLog encodes args as the named event of parsed, emitted by address.
// Indexed arguments become topics; the rest are packed into Data in ABI order.
func BuildLog(tb testing.TB, parsed abi.ABI, event string, address common.Address, meta LogMeta, args map[string]interface{}) types.Log {
	tb.Helper()

	ev, ok := parsed.Events[event]
	if !ok {
		tb.Fatalf("event %s not in abi", event)
	}

	topics := []common.Hash{ev.ID}
	values := make([]interface{}, 0, len(ev.Inputs))
	for _, input := range ev.Inputs {
		value, ok := args[input.Name]
		if !ok {
			tb.Fatalf("missing %s.%s", event, input.Name)
		}
		if input.Indexed {
			encoded, err := abi.MakeTopics([]interface{}{value})
			if err != nil {
				tb.Fatalf("make topic %s: %v", input.Name, err)
			}
			topics = append(topics, encoded[0][0])
			continue
		}
		values = append(values, value)
	}

	data, err := ev.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		tb.Fatalf("pack %s: %v", event, err)
	}

	return types.Log{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: meta.BlockNumber,
		TxHash:      meta.TxHash,
		Index:       meta.LogIndex,
	}
}

// Address returns a deterministic address made of a repeated byte.
func Address(b byte) common.Address {
	var addr common.Address
	for i := range addr {
		addr[i] = b
	}
	return addr
}

// Hash returns a deterministic hash made of a repeated byte.
func Hash(b byte) common.Hash {
	var h common.Hash
	for i := range h {
		h[i] = b
	}
	return h
}
