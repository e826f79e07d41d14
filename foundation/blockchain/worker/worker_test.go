package worker_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, difficulty int) *state.State {
	st, err := state.New(state.Config{
		Host:           peer.New("node-a", "127.0.0.1", 9080),
		Difficulty:     difficulty,
		SelectStrategy: selector.StrategyTimestamp,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	return st
}

func newTx(t *testing.T, id string, ts uint64) database.Tx {
	pk, err := signature.GenerateKey(signature.DefaultKeyBits)
	if err != nil {
		t.Fatal(err)
	}

	pub, err := signature.EncodePublicKey(&pk.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	tx, err := database.Tx{ID: id, Sender: pub, Receiver: "bob", Amount: 1, TimeStamp: ts}.Sign(pk)
	if err != nil {
		t.Fatal(err)
	}

	return tx
}

func waitFor(timeout time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}

	return false
}

func Test_MiningOperations(t *testing.T) {
	t.Log("Given the need to mine the mempool in the background.")
	{
		st := newState(t, 1)
		w := worker.Run(st, func(v string, args ...any) { t.Logf(v, args...) })
		defer w.Shutdown()

		// Two transactions in the same second need two blocks.
		st.UpdateTransaction([]database.Tx{newTx(t, "1", 100), newTx(t, "2", 100)})

		mined := waitFor(10*time.Second, func() bool {
			return st.QueryChainLength() == 2 && st.QueryMempoolLength() == 0
		})
		if !mined {
			t.Fatalf("\t%s\tShould mine every pending transaction: chain[%d] pool[%d]", failed, st.QueryChainLength(), st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould mine every pending transaction.", success)

		if !database.IsValidChain(st.RetrieveBlockchain()) {
			t.Fatalf("\t%s\tShould mine a valid chain.", failed)
		}
		t.Logf("\t%s\tShould mine a valid chain.", success)
	}
}

func Test_ShutdownCancelsMining(t *testing.T) {
	t.Log("Given the need to stop a search that can't finish.")
	{
		st := newState(t, 64)
		w := worker.Run(st, nil)

		st.UpdateTransaction([]database.Tx{newTx(t, "1", 100)})

		// Give the search a moment to start.
		time.Sleep(100 * time.Millisecond)

		done := make(chan struct{})
		go func() {
			w.Shutdown()
			close(done)
		}()

		select {
		case <-done:
			t.Logf("\t%s\tShould stop mining on shutdown.", success)
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould stop mining on shutdown.", failed)
		}

		if st.QueryChainLength() != 0 || st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould not commit anything when cancelled.", failed)
		}
		t.Logf("\t%s\tShould not commit anything when cancelled.", success)
	}
}

func Test_ShareTxOperations(t *testing.T) {
	t.Log("Given the need to share client transactions without waiting on peers.")
	{
		// This peer accepts the request and then never answers.
		received := make(chan struct{}, 10)
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received <- struct{}{}
			<-release
		}))
		defer srv.Close()

		stuck, err := peer.FromHost("stuck", srv.Listener.Addr().String())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the peer: %s", failed, err)
		}

		known := peer.NewPeerSet()
		known.Add(stuck)

		// The difficulty keeps the search running so only the share reaches
		// the peer.
		st, err := state.New(state.Config{
			Host:           peer.New("node-a", "127.0.0.1", 9080),
			Difficulty:     64,
			SelectStrategy: selector.StrategyTimestamp,
			KnownPeers:     known,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
		}
		w := worker.Run(st, nil)

		start := time.Now()
		added := st.UpdateClientTransaction([]database.Tx{newTx(t, "1", 100)})
		elapsed := time.Since(start)

		if added != 1 || elapsed > time.Second {
			close(release)
			w.Shutdown()
			t.Fatalf("\t%s\tShould return without waiting on the peer: added[%d] took[%v]", failed, added, elapsed)
		}
		t.Logf("\t%s\tShould return without waiting on the peer.", success)

		select {
		case <-received:
			t.Logf("\t%s\tShould still share the transaction with the peer.", success)
		case <-time.After(5 * time.Second):
			close(release)
			w.Shutdown()
			t.Fatalf("\t%s\tShould still share the transaction with the peer.", failed)
		}

		close(release)
		w.Shutdown()
	}
}
