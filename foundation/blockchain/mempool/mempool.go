// Package mempool maintains the pool of pending transactions for the
// blockchain.
package mempool

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
	orderedmap "github.com/wk8/go-ordered-map"
)

// Mempool represents the set of transactions waiting to be mined, kept in
// arrival order and deduplicated by full equality. It is not safe for
// concurrent use, the state package guards it with the same lock that guards
// the chain so both can be changed atomically.
type Mempool struct {
	pool     *orderedmap.OrderedMap
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New() *Mempool {
	mp, _ := NewWithStrategy(selector.StrategyTimestamp)
	return mp
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     orderedmap.New(),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	return mp.pool.Len()
}

// Contains reports whether the exact transaction is in the pool.
func (mp *Mempool) Contains(tx database.Tx) bool {
	_, exists := mp.pool.Get(tx)
	return exists
}

// Upsert adds the transaction to the pool. It returns false if the
// transaction was already there.
func (mp *Mempool) Upsert(tx database.Tx) bool {
	if mp.Contains(tx) {
		return false
	}

	mp.pool.Set(tx, struct{}{})
	return true
}

// Delete removes the specified transactions from the pool and returns the
// number removed.
func (mp *Mempool) Delete(txs ...database.Tx) int {
	var removed int
	for _, tx := range txs {
		if _, exists := mp.pool.Delete(tx); exists {
			removed++
		}
	}

	return removed
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.pool = orderedmap.New()
}

// Copy returns a copy of the pool in arrival order.
func (mp *Mempool) Copy() []database.Tx {
	cpy := make([]database.Tx, 0, mp.pool.Len())
	for pair := mp.pool.Oldest(); pair != nil; pair = pair.Next() {
		cpy = append(cpy, pair.Key.(database.Tx))
	}

	return cpy
}

// PickBest uses the configured select strategy to return the next set of
// transactions for the next block. Pass -1 for as many as the strategy allows.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	return mp.selectFn(mp.Copy(), howMany)
}
