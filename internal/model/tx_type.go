package model

// TxType is the normalized transaction taxonomy shared by every contract kind.
type TxType string

const (
	TxDeployment        TxType = "deployment"
	TxDeposit           TxType = "deposit"
	TxWithdrawal        TxType = "withdrawal"
	TxRefund            TxType = "refund"
	TxClaim             TxType = "claim"
	TxApproval          TxType = "approval"
	TxGoalReached       TxType = "goal_reached"
	TxFundsReleased     TxType = "funds_released"
	TxDeliveryConfirmed TxType = "delivery_confirmed"
	TxVote              TxType = "vote"
	TxStateChange       TxType = "state_change"
	TxInteraction       TxType = "interaction"
)
