package relay

import (
	"sort"
	"sync"

	"github.com/gitmesh/gitmesh/pkg/monitor"
)

// Registry maps self-declared peer ids to live connections.
// The last connection to register an id owns it.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]*Conn)}
}

// Register maps id to c and returns the connection it displaced, if any.
func (r *Registry) Register(id string, c *Conn) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.peers[id]
	r.peers[id] = c
	monitor.ConnectedPeers.Set(float64(len(r.peers)))
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes id only while it still points at c.
func (r *Registry) Unregister(id string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.peers[id]; !ok || cur != c {
		return false
	}
	delete(r.peers, id)
	monitor.ConnectedPeers.Set(float64(len(r.peers)))
	return true
}

func (r *Registry) Lookup(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.peers[id]
	return c, ok
}

// Broadcast queues msg on every registered connection except skip.
// It returns the number of connections that accepted the message.
func (r *Registry) Broadcast(msg []byte, skip *Conn) int {
	r.mu.RLock()
	targets := make([]*Conn, 0, len(r.peers))
	for _, c := range r.peers {
		if c != skip {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.Send(msg) {
			sent++
		}
	}
	return sent
}

// Peers returns the registered ids, sorted.
func (r *Registry) Peers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
