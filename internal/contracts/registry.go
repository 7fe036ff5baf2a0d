package contracts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const creatorField = "creator"

type schemaSource struct {
	abiJSON       string
	creationEvent string
	cloneField    string
}

// One entry per Kind; NewRegistry rejects a kind without a source.
var schemaSources = [numKinds]schemaSource{
	RentVault: {
		abiJSON:       rentVaultABIJSON,
		creationEvent: "RentVaultCreated",
		cloneField:    "vault",
	},
	GroupBuyEscrow: {
		abiJSON:       groupBuyEscrowABIJSON,
		creationEvent: "GroupBuyEscrowCreated",
		cloneField:    "escrow",
	},
	AllowanceTreasury: {
		abiJSON:       allowanceTreasuryABIJSON,
		creationEvent: "AllowanceTreasuryCreated",
		cloneField:    "treasury",
	},
}

// Schema is the compiled event surface of one contract kind.
type Schema struct {
	Kind          Kind
	ABI           abi.ABI
	CreationEvent abi.Event
	CloneField    string
}

// Registry maps contract kinds to their compiled event schemas and the factory
// creation events that announce them.
type Registry struct {
	factory       abi.ABI
	schemas       [numKinds]*Schema
	creationKinds map[common.Hash]Kind
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
	defaultRegistryErr  error
)

// DefaultRegistry returns the process-wide registry built from the embedded ABIs.
func DefaultRegistry() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = NewRegistry()
	})
	return defaultRegistry, defaultRegistryErr
}

// NewRegistry parses the factory ABI and every kind's ABI.
func NewRegistry() (*Registry, error) {
	factory, err := abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	r := &Registry{
		factory:       factory,
		creationKinds: make(map[common.Hash]Kind, numKinds),
	}

	for _, kind := range Kinds() {
		src := schemaSources[kind]
		if src.abiJSON == "" || src.creationEvent == "" || src.cloneField == "" {
			return nil, fmt.Errorf("no schema registered for %s", kind)
		}

		parsed, err := abi.JSON(strings.NewReader(src.abiJSON))
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", kind, err)
		}

		creation, ok := factory.Events[src.creationEvent]
		if !ok {
			return nil, fmt.Errorf("factory abi has no %s event for %s", src.creationEvent, kind)
		}
		if !hasInput(creation, src.cloneField) || !hasInput(creation, creatorField) {
			return nil, fmt.Errorf("%s event lacks %s/%s fields", src.creationEvent, src.cloneField, creatorField)
		}

		r.schemas[kind] = &Schema{
			Kind:          kind,
			ABI:           parsed,
			CreationEvent: creation,
			CloneField:    src.cloneField,
		}
		r.creationKinds[creation.ID] = kind
	}

	return r, nil
}

// Schema returns the compiled schema for kind.
func (r *Registry) Schema(kind Kind) (*Schema, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return r.schemas[kind], nil
}

// FactoryABI returns the parsed factory ABI.
func (r *Registry) FactoryABI() abi.ABI {
	return r.factory
}

// CreationTopic returns the topic0 of the factory event announcing a clone of kind.
func (r *Registry) CreationTopic(kind Kind) (common.Hash, error) {
	schema, err := r.Schema(kind)
	if err != nil {
		return common.Hash{}, err
	}
	return schema.CreationEvent.ID, nil
}

// CreationKind resolves the contract kind for a factory creation topic0.
func (r *Registry) CreationKind(topic0 common.Hash) (Kind, bool) {
	kind, ok := r.creationKinds[topic0]
	return kind, ok
}

func hasInput(event abi.Event, name string) bool {
	for _, arg := range event.Inputs {
		if arg.Name == name {
			return true
		}
	}
	return false
}
