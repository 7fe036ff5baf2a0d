package model

// ClonedContract is one agreement clone deployed through the factory.
type ClonedContract struct {
	Address        string            `json:"address"`
	Kind           string            `json:"kind"`
	Creator        string            `json:"creator"`
	CreationBlock  uint64            `json:"creation_block"`
	CreationTxHash string            `json:"creation_tx_hash"`
	Config         map[string]string `json:"config"`
	Label          *string           `json:"label,omitempty"`
}
