// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// DefaultDifficulty is the number of leading zeros a block hash needs when
// the node is not configured otherwise.
const DefaultDifficulty = 4

// peerTimeout bounds every outbound request so a dead peer can't hold up
// gossip forever.
const peerTimeout = 10 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(txs []database.Tx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host           peer.Peer
	Difficulty     int
	SelectStrategy string
	KnownPeers     *peer.PeerSet
	EvHandler      EventHandler
}

// State manages the blockchain database.
type State struct {
	host       peer.Peer
	difficulty int
	evHandler  EventHandler
	client     *http.Client

	// mu guards the chain and the mempool together so fork resolution sees
	// both atomically. The roster has its own lock inside the peer set.
	mu      sync.Mutex
	db      *database.Database
	mempool *mempool.Mempool

	knownPeers *peer.PeerSet

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	if cfg.Host.IP == "" || cfg.Host.Port == 0 {
		return nil, errors.New("host ip and port are required")
	}

	if cfg.Difficulty < 0 {
		return nil, errors.New("difficulty can't be negative")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Construct a mempool with the specified select strategy.
	mempool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// A node is always part of its own roster.
	knownPeers.Add(cfg.Host)

	// Create the State to provide support for managing the blockchain.
	state := State{
		host:       cfg.Host,
		difficulty: cfg.Difficulty,
		evHandler:  ev,
		client:     &http.Client{Timeout: peerTimeout},

		db:      database.New(),
		mempool: mempool,

		knownPeers: knownPeers,
	}

	// The call to worker.Run will replace this with a real worker.
	state.Worker = noopWorker{state: &state}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// noopWorker is used until a worker registers itself with the state. It
// doesn't mine but still shares client submissions off the caller's path.
type noopWorker struct {
	state *State
}

func (noopWorker) Shutdown()           {}
func (noopWorker) SignalStartMining()  {}
func (noopWorker) SignalCancelMining() {}

func (w noopWorker) SignalShareTx(txs []database.Tx) {
	go w.state.NetSendTxToPeers(txs)
}
