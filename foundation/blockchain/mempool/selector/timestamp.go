package selector

import (
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// timestampSelect returns the transactions ordered by timestamp. Only the
// earliest arrival is taken for any given timestamp, the others sharing that
// second are left behind for a later block. A zero timestamp can never be
// part of a valid block and is never selected.
var timestampSelect = func(transactions []database.Tx, howMany int) []database.Tx {
	sorted := make([]database.Tx, len(transactions))
	copy(sorted, transactions)

	// Stable keeps arrival order between transactions of the same second.
	sort.Stable(byTimestamp(sorted))

	var final []database.Tx
	for i, tx := range sorted {
		if howMany != -1 && len(final) == howMany {
			break
		}

		if tx.TimeStamp == 0 || (i > 0 && tx.TimeStamp == sorted[i-1].TimeStamp) {
			continue
		}

		final = append(final, tx)
	}

	return final
}
