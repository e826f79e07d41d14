package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() peer.Peer {
	return s.host
}

// RetrieveDifficulty returns the difficulty this node mines and accepts.
func (s *State) RetrieveDifficulty() int {
	return s.difficulty
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.LatestBlock()
}

// RetrieveBlockchain returns a copy of the full chain.
func (s *State) RetrieveBlockchain() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Copy()
}

// RetrieveBlockchainFrom returns a copy of the chain starting at the
// specified block id.
func (s *State) RetrieveBlockchainFrom(id int64) []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.CopyFrom(int(id))
}

// RetrieveMempool returns a copy of the mempool in arrival order.
func (s *State) RetrieveMempool() []database.Tx {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list without
// this node.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host.Host())
}

// RetrievePeerList retrieves a copy of the full roster including this node.
func (s *State) RetrievePeerList() []peer.Peer {
	return s.knownPeers.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mempool.Count()
}

// QueryChainLength returns the current number of blocks in the chain.
func (s *State) QueryChainLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Length()
}
