package classify

import "agreementIndexer/internal/model"

type rule struct {
	txType model.TxType
	// system events have no initiator and never trigger the sender lookup.
	system bool
}

// eventRules maps decoded event names to the normalized taxonomy. Names are shared
// across contract kinds; anything missing is an interaction.
var eventRules = map[string]rule{
	"Deposited":           {txType: model.TxDeposit},
	"WithdrawnToLandlord": {txType: model.TxWithdrawal},
	"Refunded":            {txType: model.TxRefund},
	"AllowanceClaimed":    {txType: model.TxClaim},
	"ApprovalIncremented": {txType: model.TxApproval},
	"EmergencyWithdrawal": {txType: model.TxWithdrawal},
	"GoalReached":         {txType: model.TxGoalReached, system: true},
	"RentFullyFunded":     {txType: model.TxGoalReached, system: true},
	"FundsReleased":       {txType: model.TxFundsReleased},
	"DeliveryConfirmed":   {txType: model.TxDeliveryConfirmed},
	"VoteCast":            {txType: model.TxVote},
	"TimelockRefund":      {txType: model.TxRefund},
	"StateChanged":        {txType: model.TxStateChange, system: true},
}

// initiatorFields lists, per type, the event fields that may hold the initiating
// address. The first present address wins.
var initiatorFields = map[model.TxType][]string{
	model.TxDeployment:        {"creator"},
	model.TxDeposit:           {"from", "tenant", "participant", "depositor", "sender"},
	model.TxWithdrawal:        {"landlord", "owner", "to", "sender"},
	model.TxRefund:            {"tenant", "participant", "to", "recipient"},
	model.TxClaim:             {"recipient", "claimer", "to"},
	model.TxApproval:          {"approver", "owner", "sender"},
	model.TxFundsReleased:     {"releaser", "caller", "sender"},
	model.TxDeliveryConfirmed: {"confirmer", "participant", "sender"},
	model.TxVote:              {"voter", "participant"},
}

// amountFields lists, per value-transfer type, the fields carrying the moved amount.
var amountFields = map[model.TxType][]string{
	model.TxDeposit:       {"amount", "value"},
	model.TxWithdrawal:    {"amount", "value"},
	model.TxRefund:        {"amount", "value"},
	model.TxClaim:         {"amount", "value"},
	model.TxFundsReleased: {"amount", "value"},
}
