// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyTimestamp = "timestamp"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyTimestamp: timestampSelect,
}

// Func defines a function that takes the pending transactions in arrival
// order and selects howMany of them for the next block. All selector
// functions MUST return transactions with strictly increasing timestamps
// since that is a block validity rule. Receiving -1 for howMany must return
// as many transactions as the strategy allows.
type Func func(transactions []database.Tx, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byTimestamp provides sorting support by the transaction timestamp value.
type byTimestamp []database.Tx

// Len returns the number of transactions in the list.
func (bt byTimestamp) Len() int {
	return len(bt)
}

// Less helps to sort the list by timestamp in ascending order.
func (bt byTimestamp) Less(i, j int) bool {
	return bt[i].TimeStamp < bt[j].TimeStamp
}

// Swap moves transactions in the order of the timestamp value.
func (bt byTimestamp) Swap(i, j int) {
	bt[i], bt[j] = bt[j], bt[i]
}
