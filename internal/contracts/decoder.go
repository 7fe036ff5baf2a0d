package contracts

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrUnknownEvent is returned when a log's topic0 is not an event of the ABI it is
// decoded against. Logs of unrelated contracts and ABI drift both end up here.
var ErrUnknownEvent = errors.New("unknown event")

// DecodedEvent is a log decoded against a kind's ABI. Fields hold the raw ABI values
// (common.Address, *big.Int, bool, ...); use Payload for a storage-safe copy.
type DecodedEvent struct {
	Kind   Kind
	Name   string
	Fields map[string]interface{}
}

// CreationEvent is a decoded factory log announcing a new clone.
type CreationEvent struct {
	Kind      Kind
	EventName string
	Clone     common.Address
	Creator   common.Address
	Fields    map[string]interface{}
	Log       types.Log
}

// Decode decodes log against the ABI of kind.
func (r *Registry) Decode(kind Kind, log types.Log) (DecodedEvent, error) {
	schema, err := r.Schema(kind)
	if err != nil {
		return DecodedEvent{}, err
	}

	event, fields, err := decodeLog(schema.ABI, log)
	if err != nil {
		return DecodedEvent{}, err
	}

	return DecodedEvent{Kind: kind, Name: event.Name, Fields: fields}, nil
}

// DecodeCreation decodes a factory log into a CreationEvent.
func (r *Registry) DecodeCreation(log types.Log) (CreationEvent, error) {
	if len(log.Topics) == 0 {
		return CreationEvent{}, fmt.Errorf("%w: missing topic0", ErrUnknownEvent)
	}
	kind, ok := r.CreationKind(log.Topics[0])
	if !ok {
		return CreationEvent{}, fmt.Errorf("%w: not a creation event: %s", ErrUnknownEvent, log.Topics[0].Hex())
	}
	schema := r.schemas[kind]

	event, fields, err := decodeLog(r.factory, log)
	if err != nil {
		return CreationEvent{}, err
	}

	clone, ok := AddressField(fields, schema.CloneField)
	if !ok {
		return CreationEvent{}, fmt.Errorf("%s: missing %s", event.Name, schema.CloneField)
	}
	creator, ok := AddressField(fields, creatorField)
	if !ok {
		return CreationEvent{}, fmt.Errorf("%s: missing %s", event.Name, creatorField)
	}

	return CreationEvent{
		Kind:      kind,
		EventName: event.Name,
		Clone:     clone,
		Creator:   creator,
		Fields:    fields,
		Log:       log,
	}, nil
}

func decodeLog(parsed abi.ABI, log types.Log) (*abi.Event, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, nil, fmt.Errorf("%w: missing topic0", ErrUnknownEvent)
	}

	event, err := parsed.EventByID(log.Topics[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: topic0 %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return nil, nil, fmt.Errorf("%s: expected %d topics, got %d", event.Name, len(indexed)+1, len(log.Topics))
	}

	fields := make(map[string]interface{}, len(event.Inputs))
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return nil, nil, fmt.Errorf("parse %s topics: %w", event.Name, err)
		}
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(fields, log.Data); err != nil {
		return nil, nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	return event, fields, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
