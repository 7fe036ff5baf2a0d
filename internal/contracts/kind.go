package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a contract kind name is not recognized.
var ErrUnknownKind = errors.New("unknown contract kind")

// Kind is the closed set of agreement contracts deployed by the factory.
type Kind uint8

const (
	RentVault Kind = iota
	GroupBuyEscrow
	AllowanceTreasury

	numKinds
)

var kindNames = [numKinds]string{
	RentVault:         "rent-vault",
	GroupBuyEscrow:    "group-buy-escrow",
	AllowanceTreasury: "allowance-treasury",
}

// Kinds returns every contract kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// ParseKind converts a kind name such as "rent-vault" into a Kind.
// Underscores and case are tolerated.
func ParseKind(input string) (Kind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), "_", "-")
	for k, candidate := range kindNames {
		if candidate == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, input)
}
