// Package classify maps decoded agreement events onto the normalized transaction
// taxonomy.
package classify

import (
	"agreementIndexer/internal/contracts"
	"agreementIndexer/internal/model"
)

// Result is the classification of one decoded event.
type Result struct {
	Type      model.TxType
	System    bool
	Initiator *string
	Amount    *string
}

// NeedsSender reports whether the initiator must come from the transaction sender.
func (r Result) NeedsSender() bool {
	return !r.System && r.Initiator == nil
}

// Classify resolves the normalized type, initiator and amount of an event.
func Classify(name string, fields map[string]interface{}) Result {
	r, ok := eventRules[name]
	if !ok {
		r = rule{txType: model.TxInteraction}
	}
	return resolve(r, fields)
}

// ClassifyCreation classifies a factory creation event as a deployment.
func ClassifyCreation(fields map[string]interface{}) Result {
	return resolve(rule{txType: model.TxDeployment}, fields)
}

// Type returns the normalized type for an event name.
func Type(name string) model.TxType {
	if r, ok := eventRules[name]; ok {
		return r.txType
	}
	return model.TxInteraction
}

// IsSystem reports whether an event name is emitted without an initiator.
func IsSystem(name string) bool {
	return eventRules[name].system
}

func resolve(r rule, fields map[string]interface{}) Result {
	res := Result{Type: r.txType, System: r.system}
	if r.system {
		return res
	}

	for _, name := range initiatorFields[r.txType] {
		if addr, ok := contracts.AddressField(fields, name); ok {
			formatted := contracts.FormatAddress(addr)
			res.Initiator = &formatted
			break
		}
	}

	for _, name := range amountFields[r.txType] {
		if amount, ok := contracts.BigIntField(fields, name); ok {
			formatted := amount.String()
			res.Amount = &formatted
			break
		}
	}

	return res
}
