package private

import "github.com/ardanlabs/ledger/business/sys/validate"

// NodeInfo identifies the node asking to join the network.
type NodeInfo struct {
	ID   string `json:"id" validate:"required"`
	IP   string `json:"ip" validate:"required,ip|hostname"`
	Port uint32 `json:"port" validate:"required,max=65535"`
}

// Validate checks the data in the model is considered clean.
func (ni NodeInfo) Validate() error {
	return validate.Check(ni)
}

// TxResult is the reply to a set of transactions being pushed to the node.
type TxResult struct {
	Success bool `json:"success"`
	Added   int  `json:"added"`
}
