package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// JoinResult is what a node hands back to a peer joining the network.
type JoinResult struct {
	Nodes        []peer.Peer      `json:"nodes"`
	Chain        []database.Block `json:"chain"`
	Transactions []database.Tx    `json:"transactions"`
}

// JoinNetwork adds the peer to the roster and returns the roster, the chain
// and the mempool so the peer can start from the same state.
func (s *State) JoinNetwork(pr peer.Peer) JoinResult {
	s.evHandler("state: JoinNetwork: started: peer[%s]", pr)
	defer s.evHandler("state: JoinNetwork: completed")

	if s.knownPeers.Add(pr) {
		s.evHandler("state: JoinNetwork: added peer[%s]", pr)
	}

	s.mu.Lock()
	chain := s.db.Copy()
	txs := s.mempool.Copy()
	s.mu.Unlock()

	return JoinResult{
		Nodes:        s.knownPeers.Copy(),
		Chain:        chain,
		Transactions: txs,
	}
}

// Bootstrap joins the network through the specified host, adopts the state
// it returns and then introduces this node to the rest of the roster.
func (s *State) Bootstrap(bootstrapHost string) error {
	s.evHandler("state: Bootstrap: started: bootstrap[%s]", bootstrapHost)
	defer s.evHandler("state: Bootstrap: completed")

	jr, err := s.NetJoin(bootstrapHost)
	if err != nil {
		return fmt.Errorf("joining %s: %w", bootstrapHost, err)
	}

	s.knownPeers.AddAll(jr.Nodes)

	if len(jr.Chain) > 0 {
		if _, err := s.updateBlockchain(jr.Chain); err != nil {
			return fmt.Errorf("adopting chain from %s: %w", bootstrapHost, err)
		}
	}
	added := s.admitTransactions(jr.Transactions)

	s.evHandler("state: Bootstrap: adopted: peers[%d]: blocks[%d]: txs[%d]", len(jr.Nodes), len(jr.Chain), added)

	// Every other node in the roster needs to learn about this node. A node
	// that can't be reached is skipped.
	var wg sync.WaitGroup
	for _, pr := range s.knownPeers.Copy(s.host.Host(), bootstrapHost) {
		wg.Add(1)
		go func(pr peer.Peer) {
			defer wg.Done()

			jr, err := s.NetJoin(pr.Host())
			if err != nil {
				s.evHandler("state: Bootstrap: WARNING: peer[%s]: %s", pr, err)
				return
			}
			s.knownPeers.AddAll(jr.Nodes)
		}(pr)
	}
	wg.Wait()

	if added > 0 {
		s.Worker.SignalStartMining()
	}

	return nil
}

// NetJoin asks the node at the specified host to add this node to its roster.
func (s *State) NetJoin(host string) (JoinResult, error) {
	s.evHandler("state: NetJoin: started: host[%s]", host)
	defer s.evHandler("state: NetJoin: completed: host[%s]", host)

	url := fmt.Sprintf("%s/join", fmt.Sprintf(baseURL, host))

	var jr JoinResult
	if err := s.send(http.MethodPost, url, s.host, &jr); err != nil {
		return JoinResult{}, err
	}

	return jr, nil
}

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers, walking back along the chain for any peer that needs earlier blocks.
func (s *State) NetSendBlockToPeers(block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.ID)
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	for _, pr := range s.RetrieveKnownPeers() {
		if err := s.netSendChainToPeer(pr, block.ID); err != nil {
			s.evHandler("state: NetSendBlockToPeers: WARNING: peer[%s]: %s", pr, err)
			continue
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr)
	}
}

// NetSendTxToPeers shares the transactions with the known peers. Peers are
// sent to concurrently so one unresponsive peer doesn't delay the others.
func (s *State) NetSendTxToPeers(txs []database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started: txs[%d]", len(txs))
	defer s.evHandler("state: NetSendTxToPeers: completed")

	var wg sync.WaitGroup
	for _, pr := range s.RetrieveKnownPeers() {
		wg.Add(1)
		go func(pr peer.Peer) {
			defer wg.Done()

			url := fmt.Sprintf("%s/tx/update", fmt.Sprintf(baseURL, pr.Host()))
			if err := s.send(http.MethodPost, url, txs, nil); err != nil {
				s.evHandler("state: NetSendTxToPeers: WARNING: peer[%s]: %s", pr, err)
			}
		}(pr)
	}

	wg.Wait()
}

// =============================================================================

// netSendChainToPeer sends the chain from the specified block id. Every time
// the peer asks for earlier blocks the send is retried from where the peer
// said to start.
func (s *State) netSendChainToPeer(pr peer.Peer, from int64) error {
	url := fmt.Sprintf("%s/blockchain/update", fmt.Sprintf(baseURL, pr.Host()))

	for {
		blocks := s.RetrieveBlockchainFrom(from)
		if len(blocks) == 0 {
			return nil
		}

		var result UpdateResult
		if err := s.send(http.MethodPost, url, blocks, &result); err != nil {
			return err
		}

		if result.Success {
			return nil
		}

		// Only walk backwards, anything else means the peer has nothing
		// more to learn from this chain.
		next := int64(result.ChainLength)
		if next >= from {
			s.evHandler("state: netSendChainToPeer: peer[%s]: not accepted: chain-length[%d] %s", pr, result.ChainLength, result.Error)
			return nil
		}

		s.evHandler("state: netSendChainToPeer: peer[%s]: resend from blk[%d]", pr, next)
		from = next
	}
}

// send is a helper function to send an HTTP request to a node.
func (s *State) send(method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
