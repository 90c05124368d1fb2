package listener

import (
	"sync"

	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
)

// PeerSet is the production PeerGroup: every peer connection this process
// currently holds, added once its connection is dialed and removed on
// disconnect.
type PeerSet struct {
	mu    sync.Mutex
	peers map[string]*peer.Peer
}

// NewPeerSet constructs an empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[string]*peer.Peer)}
}

// Add registers a connected peer under its address.
func (s *PeerSet) Add(p *peer.Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.Addr()] = p
}

// Remove drops a peer, typically called once its Listener has shut down.
func (s *PeerSet) Remove(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, addr)
}

// ConnectedCount implements PeerGroup, counting only peers still connected.
func (s *PeerSet) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, p := range s.peers {
		if p.Connected() {
			count++
		}
	}
	return count
}

// Broadcast implements PeerGroup, queuing msg on every connected peer.
func (s *PeerSet) Broadcast(msg wire.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.peers {
		if p.Connected() {
			p.QueueMessage(msg, nil)
		}
	}
}

var _ PeerGroup = (*PeerSet)(nil)
