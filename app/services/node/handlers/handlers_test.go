package handlers_test

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const difficulty = 2

type node struct {
	state  *state.State
	server *httptest.Server
}

func (n node) url(path string) string {
	return n.server.URL + path
}

func (n node) host() string {
	return n.state.RetrieveHost().Host()
}

// newNode starts a node listening on a random local port. The listener has to
// exist before the state so the node knows its own address.
func newNode(t *testing.T, mine bool) node {
	srv := httptest.NewUnstartedServer(nil)

	host, err := peer.FromHost(uuid.NewString(), srv.Listener.Addr().String())
	require.NoError(t, err)

	st, err := state.New(state.Config{
		Host:           host,
		Difficulty:     difficulty,
		SelectStrategy: selector.StrategyTimestamp,
	})
	require.NoError(t, err)

	srv.Config.Handler = handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	})

	// The worker registers itself with the state, which has to happen before
	// any request can read it.
	if mine {
		w := worker.Run(st, nil)
		t.Cleanup(w.Shutdown)
	}

	srv.Start()
	t.Cleanup(srv.Close)

	return node{state: st, server: srv}
}

func newKey(t *testing.T) (*rsa.PrivateKey, string) {
	pk, err := signature.GenerateKey(signature.DefaultKeyBits)
	require.NoError(t, err)

	pub, err := signature.EncodePublicKey(&pk.PublicKey)
	require.NoError(t, err)

	return pk, pub
}

func newTx(t *testing.T, pk *rsa.PrivateKey, pub string, id string, ts uint64) database.Tx {
	tx, err := database.Tx{ID: id, Sender: pub, Receiver: "bob", Amount: 10, TimeStamp: ts}.Sign(pk)
	require.NoError(t, err)

	return tx
}

func call(t *testing.T, method string, url string, dataSend any, dataRecv any) int {
	var body bytes.Buffer
	if dataSend != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(dataSend))
	}

	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if dataRecv != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dataRecv))
	}

	return resp.StatusCode
}

func hashes(blocks []database.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Hash
	}
	return out
}

// =============================================================================

func Test_JoinNetwork(t *testing.T) {
	a := newNode(t, false)
	b := newNode(t, false)
	c := newNode(t, false)

	require.NoError(t, b.state.Bootstrap(a.host()))
	require.NoError(t, c.state.Bootstrap(b.host()))

	want := []string{a.host(), b.host(), c.host()}

	for _, n := range []node{a, b, c} {
		var peers []peer.Peer
		require.Equal(t, http.StatusOK, call(t, http.MethodGet, n.url("/v1/peers"), nil, &peers))

		var got []string
		for _, p := range peers {
			got = append(got, p.Host())
		}
		require.ElementsMatch(t, want, got, "node %s", n.host())
	}
}

func Test_BootstrapAdoptsState(t *testing.T) {
	pk, pub := newKey(t)

	a := newNode(t, false)
	tx1 := newTx(t, pk, pub, "1", 100)
	a.state.UpdateTransaction([]database.Tx{tx1})

	_, err := a.state.MineNewBlock(context.Background())
	require.NoError(t, err)

	tx2 := newTx(t, pk, pub, "2", 101)
	a.state.UpdateTransaction([]database.Tx{tx2})

	b := newNode(t, false)
	require.NoError(t, b.state.Bootstrap(a.host()))

	require.Equal(t, hashes(a.state.RetrieveBlockchain()), hashes(b.state.RetrieveBlockchain()))
	require.Equal(t, []database.Tx{tx2}, b.state.RetrieveMempool())
}

func Test_TransactionGossip(t *testing.T) {
	pk, pub := newKey(t)

	// The last node only knows the first one through the middle one.
	a := newNode(t, false)
	b := newNode(t, false)
	c := newNode(t, false)
	require.NoError(t, b.state.Bootstrap(a.host()))
	require.NoError(t, c.state.Bootstrap(b.host()))

	tx := newTx(t, pk, pub, "1", 100)
	bad := tx
	bad.Amount = 1_000

	var result struct {
		Success bool `json:"success"`
		Added   int  `json:"added"`
	}
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/tx/submit"), []database.Tx{tx, bad}, &result))
	require.True(t, result.Success)
	require.Equal(t, 1, result.Added)

	// The client submission is shared after the call returns.
	for _, n := range []node{a, b, c} {
		require.Eventually(t, func() bool {
			var pool []database.Tx
			return call(t, http.MethodGet, n.url("/v1/tx/list"), nil, &pool) == http.StatusOK &&
				len(pool) == 1 && pool[0] == tx
		}, 5*time.Second, 20*time.Millisecond, "node %s", n.host())
	}

	// Nothing else shows up once sharing settles.
	time.Sleep(100 * time.Millisecond)
	for _, n := range []node{a, b, c} {
		var pool []database.Tx
		require.Equal(t, http.StatusOK, call(t, http.MethodGet, n.url("/v1/tx/list"), nil, &pool))
		require.Equal(t, []database.Tx{tx}, pool, "node %s", n.host())
	}

	// Gossip of a known transaction is still a success.
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, b.url("/v1/node/tx/update"), []database.Tx{tx}, &result))
	require.True(t, result.Success)
	require.Zero(t, result.Added)
}

func Test_SubmitWithUnresponsivePeer(t *testing.T) {
	pk, pub := newKey(t)

	// This peer accepts the request and then never answers.
	release := make(chan struct{})
	stuck := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer stuck.Close()
	defer close(release)

	a := newNode(t, false)
	b := newNode(t, false)
	require.NoError(t, b.state.Bootstrap(a.host()))

	pr, err := peer.FromHost(uuid.NewString(), stuck.Listener.Addr().String())
	require.NoError(t, err)
	a.state.JoinNetwork(pr)

	tx := newTx(t, pk, pub, "1", 100)

	start := time.Now()
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/tx/submit"), []database.Tx{tx}, nil))
	require.Less(t, time.Since(start), time.Second)

	// The reachable peer isn't held up by the stuck one.
	require.Eventually(t, func() bool {
		return b.state.QueryMempoolLength() == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func Test_MiningPropagation(t *testing.T) {
	pk, pub := newKey(t)

	a := newNode(t, true)
	b := newNode(t, true)
	c := newNode(t, true)
	require.NoError(t, b.state.Bootstrap(a.host()))
	require.NoError(t, c.state.Bootstrap(b.host()))

	tx := newTx(t, pk, pub, "1", 100)
	bad := tx
	bad.Amount = 1_000
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/tx/submit"), []database.Tx{tx, bad}, nil))

	nodes := []node{a, b, c}

	require.Eventually(t, func() bool {
		for _, n := range nodes {
			if n.state.QueryChainLength() != 1 || n.state.QueryMempoolLength() != 0 {
				return false
			}
		}
		return true
	}, 20*time.Second, 20*time.Millisecond)

	chain := a.state.RetrieveBlockchain()
	require.True(t, database.IsValidChain(chain))
	require.Equal(t, []database.Tx{tx}, chain[0].Transactions)
	require.True(t, strings.HasPrefix(chain[0].Hash, strings.Repeat("0", difficulty)))

	for _, n := range nodes {
		var blocks []database.Block
		require.Equal(t, http.StatusOK, call(t, http.MethodGet, n.url("/v1/blockchain"), nil, &blocks))
		require.Equal(t, hashes(chain), hashes(blocks), "node %s", n.host())
		require.Equal(t, []database.Tx{tx}, blocks[0].Transactions, "node %s", n.host())

		var pool []database.Tx
		require.Equal(t, http.StatusOK, call(t, http.MethodGet, n.url("/v1/tx/list"), nil, &pool))
		require.Empty(t, pool, "node %s", n.host())
	}
}

func Test_ForkResolution(t *testing.T) {
	pk, pub := newKey(t)

	// Only the first node mines so the outcome doesn't depend on which
	// node finds a block first.
	a := newNode(t, true)
	b := newNode(t, false)
	require.NoError(t, b.state.Bootstrap(a.host()))

	pow := func(tx database.Tx) []database.Block {
		block, err := database.POW(context.Background(), database.POWArgs{Difficulty: difficulty, Trans: []database.Tx{tx}})
		require.NoError(t, err)
		return []database.Block{block}
	}

	chain1 := pow(newTx(t, pk, pub, "1", 100))
	chain2 := pow(newTx(t, pk, pub, "2", 100))
	require.NotEqual(t, chain1[0].Hash, chain2[0].Hash)

	var result state.UpdateResult
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/node/blockchain/update"), chain1, &result))
	require.True(t, result.Success)
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, b.url("/v1/node/blockchain/update"), chain2, &result))
	require.True(t, result.Success)

	tx := newTx(t, pk, pub, "3", 101)
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/tx/submit"), []database.Tx{tx}, nil))

	require.Eventually(t, func() bool {
		return fmt.Sprint(hashes(a.state.RetrieveBlockchain())) == fmt.Sprint(hashes(b.state.RetrieveBlockchain())) &&
			b.state.QueryChainLength() == 2
	}, 20*time.Second, 20*time.Millisecond)

	require.Equal(t, chain1[0].Hash, b.state.RetrieveBlockchain()[0].Hash)
	require.Zero(t, b.state.QueryMempoolLength())

	// A chain that doesn't reach the local length is not accepted.
	before := hashes(a.state.RetrieveBlockchain())
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/node/blockchain/update"), chain2, &result))
	require.False(t, result.Success)
	require.EqualValues(t, 2, result.ChainLength)
	require.NotEmpty(t, result.Error)
	require.Equal(t, before, hashes(a.state.RetrieveBlockchain()))
}

func Test_Errors(t *testing.T) {
	pk, _ := newKey(t)
	a := newNode(t, false)

	tt := []struct {
		name   string
		path   string
		body   any
		status int
		fields []string
	}{
		{name: "bad-json", path: "/v1/node/join", body: "not json", status: http.StatusBadRequest},
		{name: "join-fields", path: "/v1/node/join", body: peer.Peer{IP: "[::1]"}, status: http.StatusBadRequest, fields: []string{"id", "ip", "port"}},
		{name: "generate-key", path: "/v1/tx/generate", body: map[string]any{"id": "1", "private_key": "abcd", "receiver": "bob", "amount": 1}, status: http.StatusBadRequest},
		{name: "generate-amount", path: "/v1/tx/generate", body: map[string]any{"id": "1", "private_key": signature.EncodePrivateKey(pk), "receiver": "bob", "amount": -1}, status: http.StatusBadRequest, fields: []string{"amount"}},
		{name: "invalid-chain", path: "/v1/node/blockchain/update", body: []database.Block{{ID: 0, Hash: "00", Difficulty: difficulty}}, status: http.StatusBadRequest},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			var er v1.ErrorResponse
			require.Equal(t, tst.status, call(t, http.MethodPost, a.url(tst.path), tst.body, &er))
			require.NotEmpty(t, er.Error)
			for _, f := range tst.fields {
				require.Contains(t, er.Fields, f)
			}
		})
	}

	var tx database.Tx
	body := map[string]any{"id": "1", "private_key": signature.EncodePrivateKey(pk), "receiver": "bob", "amount": 5}
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, a.url("/v1/tx/generate"), body, &tx))
	require.True(t, tx.IsValid())
	require.Zero(t, a.state.QueryMempoolLength())
}
