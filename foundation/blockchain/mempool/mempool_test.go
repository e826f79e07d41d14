package mempool_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
		best []string
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Tx{
				{ID: "2", Receiver: "bob", Amount: 10, TimeStamp: 12},
				{ID: "3", Receiver: "bob", Amount: 50, TimeStamp: 13},
				{ID: "4", Receiver: "bob", Amount: 100, TimeStamp: 13},
				{ID: "1", Receiver: "bob", Amount: 10, TimeStamp: 11},
			},
			best: []string{"1", "2", "3"},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for _, tx := range tst.txs {
						if !mp.Upsert(tx) {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add new transaction: %s", failed, testID, tx.ID)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to add new transaction: %s", success, testID, tx.ID)
					}

					if mp.Upsert(tst.txs[0]) || mp.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould not add the same transaction twice.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not add the same transaction twice.", success, testID)

					for i, tx := range mp.Copy() {
						if tx != tst.txs[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx.ID)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i].ID)
							t.Fatalf("\t%s\tTest %d:\tShould keep arrival order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep arrival order.", success, testID)

					best := mp.PickBest(-1)
					if len(best) != len(tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould pick %d transactions, got %d.", failed, testID, len(tst.best), len(best))
					}
					for i, tx := range best {
						if tx.ID != tst.best[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx.ID)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.best[i])
							t.Fatalf("\t%s\tTest %d:\tShould get back the right transaction.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould pick transactions with increasing timestamps.", success, testID)

					if n := mp.Delete(best...); n != len(best) {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove the picked transactions, got %d.", failed, testID, n)
					}
					if mp.Count() != len(tst.txs)-len(best) || mp.Contains(best[0]) {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove a transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove a transaction.", success, testID)

					if n := mp.Delete(best...); n != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould not remove transactions twice.", failed, testID)
					}

					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
