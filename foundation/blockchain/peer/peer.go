// Package peer maintains the peer related information such as the set
// of known peers and their addresses.
package peer

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Peer represents information about a Node in the network.
type Peer struct {
	ID   string `json:"id"`
	IP   string `json:"ip"`
	Port uint32 `json:"port"`
}

// New contructs a new info value.
func New(id string, ip string, port uint32) Peer {
	return Peer{
		ID:   id,
		IP:   ip,
		Port: port,
	}
}

// FromHost constructs a peer from an "ip:port" address.
func FromHost(id string, host string) (Peer, error) {
	ip, port, err := net.SplitHostPort(host)
	if err != nil {
		return Peer{}, fmt.Errorf("parsing host %q: %w", host, err)
	}

	p, err := strconv.ParseUint(port, 10, 32)
	if err != nil {
		return Peer{}, fmt.Errorf("parsing port %q: %w", port, err)
	}

	return New(id, ip, uint32(p)), nil
}

// Host returns the "ip:port" address of the peer.
func (p Peer) Host() string {
	return net.JoinHostPort(p.IP, strconv.FormatUint(uint64(p.Port), 10))
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host() == host
}

// String implements the fmt.Stringer interface for logging.
func (p Peer) String() string {
	return p.Host()
}

// =============================================================================

// PeerSet represents the roster of known peers. Entries are kept in the order
// they were learned and only accumulate, one per address.
type PeerSet struct {
	mu  sync.RWMutex
	set *linkedhashmap.Map
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: linkedhashmap.New(),
	}
}

// Add adds a new node to the set. It returns false if a peer with the same
// address is already known.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return ps.add(peer)
}

// AddAll adds every peer that is not already known and returns how many
// were added.
func (ps *PeerSet) AddAll(peers []Peer) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var added int
	for _, peer := range peers {
		if ps.add(peer) {
			added++
		}
	}

	return added
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return ps.set.Size()
}

// Copy returns a list of the known peers excluding the specified hosts.
func (ps *PeerSet) Copy(excludeHosts ...string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, ps.set.Size())

next:
	for _, v := range ps.set.Values() {
		peer := v.(Peer)
		for _, host := range excludeHosts {
			if peer.Match(host) {
				continue next
			}
		}
		peers = append(peers, peer)
	}

	return peers
}

func (ps *PeerSet) add(peer Peer) bool {
	host := peer.Host()
	if _, exists := ps.set.Get(host); exists {
		return false
	}

	ps.set.Put(host, peer)
	return true
}
