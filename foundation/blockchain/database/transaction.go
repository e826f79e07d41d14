package database

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of error variables for transaction validation.
var (
	ErrNegativeAmount = errors.New("amount is negative")
	ErrNegativeFee    = errors.New("fee is negative")
	ErrSelfTransfer   = errors.New("sender and receiver are the same")
	ErrTxHashMismatch = errors.New("transaction hash does not match its fields")
)

// =============================================================================

// Tx is the transactional information between two parties. The sender is the
// hex encoded PEM of the sender's public key.
type Tx struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    int64  `json:"amount"`
	Fee       int64  `json:"fee"`
	TimeStamp uint64 `json:"timestamp"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// NewTx constructs a new unsigned transaction stamped with the current time.
func NewTx(id string, sender string, receiver string, amount int64, fee int64) Tx {
	return Tx{
		ID:        id,
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Fee:       fee,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// Sign computes the canonical hash and signs it with the specified private
// key. The returned copy carries both the hash and the signature.
func (tx Tx) Sign(privateKey *rsa.PrivateKey) (Tx, error) {
	tx.Hash = tx.ComputeHash()

	sig, err := signature.Sign(tx.Hash, privateKey)
	if err != nil {
		return Tx{}, fmt.Errorf("signing tx: %w", err)
	}
	tx.Signature = sig

	return tx, nil
}

// ComputeHash returns the canonical hash of the transaction. The field order
// and the '|' separator are part of the wire contract between nodes.
func (tx Tx) ComputeHash() string {
	data := fmt.Sprintf("%d|%s|%s|%d|%d", tx.TimeStamp, tx.Sender, tx.Receiver, tx.Amount, tx.Fee)
	return signature.HashString(data)
}

// Validate verifies the transaction fields are sane, the hash matches the
// fields and the signature was produced by the sender.
func (tx Tx) Validate() error {
	if tx.Amount < 0 {
		return ErrNegativeAmount
	}

	if tx.Fee < 0 {
		return ErrNegativeFee
	}

	if tx.Sender == tx.Receiver {
		return ErrSelfTransfer
	}

	if tx.Hash != tx.ComputeHash() {
		return ErrTxHashMismatch
	}

	if err := signature.Verify(tx.Hash, tx.Signature, tx.Sender); err != nil {
		return err
	}

	return nil
}

// IsValid is the boolean form of Validate.
func (tx Tx) IsValid() bool {
	return tx.Validate() == nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	hash := tx.Hash
	if len(hash) > 16 {
		hash = hash[:16]
	}

	return fmt.Sprintf("%s:%s", tx.ID, hash)
}

// ContainsTx reports whether the transaction exists in the list.
func ContainsTx(txs []Tx, tx Tx) bool {
	for _, t := range txs {
		if t == tx {
			return true
		}
	}

	return false
}
