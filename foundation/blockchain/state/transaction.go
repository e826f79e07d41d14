package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// UpdateTransaction accepts transactions gossiped by another node. Invalid
// and already known transactions are dropped. It returns the number of
// transactions added to the mempool.
func (s *State) UpdateTransaction(txs []database.Tx) int {
	s.evHandler("state: UpdateTransaction: started: txs[%d]", len(txs))
	defer s.evHandler("state: UpdateTransaction: completed")

	added := s.admitTransactions(txs)
	if added > 0 {
		s.Worker.SignalStartMining()
	}

	return added
}

// UpdateClientTransaction accepts transactions submitted by a client and
// queues them to be shared with the rest of the network. Sharing happens
// after the call returns so an unresponsive peer can't hold up the client.
func (s *State) UpdateClientTransaction(txs []database.Tx) int {
	s.evHandler("state: UpdateClientTransaction: started: txs[%d]", len(txs))
	defer s.evHandler("state: UpdateClientTransaction: completed")

	added := s.admitTransactions(txs)
	if added > 0 {
		s.Worker.SignalStartMining()
	}

	s.Worker.SignalShareTx(txs)

	return added
}

// GenerateTx represents what is needed to build a signed transaction on
// behalf of a client.
type GenerateTx struct {
	ID         string
	Sender     string
	PrivateKey string
	Receiver   string
	Amount     int64
	Fee        int64
}

// GenerateTransaction constructs and signs a transaction with the specified
// private key. The transaction is not added to the mempool. When no sender is
// provided, the public key of the private key is used.
func (s *State) GenerateTransaction(gt GenerateTx) (database.Tx, error) {
	s.evHandler("state: GenerateTransaction: started: id[%s]", gt.ID)
	defer s.evHandler("state: GenerateTransaction: completed")

	privateKey, err := signature.ParsePrivateKey(gt.PrivateKey)
	if err != nil {
		return database.Tx{}, fmt.Errorf("parsing private key: %w", err)
	}

	sender := gt.Sender
	if sender == "" {
		if sender, err = signature.EncodePublicKey(&privateKey.PublicKey); err != nil {
			return database.Tx{}, fmt.Errorf("encoding public key: %w", err)
		}
	}

	tx, err := database.NewTx(gt.ID, sender, gt.Receiver, gt.Amount, gt.Fee).Sign(privateKey)
	if err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// =============================================================================

// admitTransactions adds every valid transaction that is not already pending
// or part of the chain.
func (s *State) admitTransactions(txs []database.Tx) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added int
	for _, tx := range txs {
		if s.mempool.Contains(tx) {
			continue
		}

		if err := tx.Validate(); err != nil {
			s.evHandler("state: admitTransactions: DROPPED: tx[%s]: %s", tx, err)
			continue
		}

		// A block needs strictly increasing transaction timestamps starting
		// above zero, so this transaction could never be mined.
		if tx.TimeStamp == 0 {
			s.evHandler("state: admitTransactions: DROPPED: tx[%s]: zero timestamp", tx)
			continue
		}

		if s.db.ContainsTx(tx) {
			s.evHandler("state: admitTransactions: DROPPED: tx[%s]: already mined", tx)
			continue
		}

		s.mempool.Upsert(tx)
		added++

		s.evHandler("state: admitTransactions: ADDED: tx[%s]", tx)
	}

	return added
}
