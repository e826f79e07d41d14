package public

import "github.com/ardanlabs/ledger/business/sys/validate"

// GenerateTx is what a client provides to have the node sign a transaction.
type GenerateTx struct {
	ID         string `json:"id" validate:"required"`
	Sender     string `json:"sender" validate:"omitempty,hexadecimal"`
	PrivateKey string `json:"private_key" validate:"required,hexadecimal"`
	Receiver   string `json:"receiver" validate:"required"`
	Amount     int64  `json:"amount" validate:"gte=0"`
	Fee        int64  `json:"fee" validate:"gte=0"`
}

// Validate checks the data in the model is considered clean.
func (gt GenerateTx) Validate() error {
	return validate.Check(gt)
}

// TxResult is the reply to a set of transactions submitted by a client.
type TxResult struct {
	Success bool `json:"success"`
	Added   int  `json:"added"`
}
