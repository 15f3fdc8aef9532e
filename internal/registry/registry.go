// Package registry is the shared store of locally registered services
// and discovered peer nodes. It is the only integration point between
// the agent's concurrent activities.
package registry

import (
	"cmp"
	"slices"
	"sync"
)

// DefaultTTL is the record ttl (seconds) used when a ServiceRecord
// does not carry one.
const DefaultTTL uint32 = 120

// ServiceRecord describes a locally registered service instance.
// Records are keyed by ID, last write wins.
type ServiceRecord struct {
	ID          string
	ServiceType string
	Port        uint16
	TTL         uint32 // 0 means unset, DefaultTTL applies on the wire
	Origin      string
	Priority    uint16
	Weight      uint16
}

func (r *ServiceRecord) EffectiveTTL() uint32 {
	if r.TTL == 0 {
		return DefaultTTL
	}
	return r.TTL
}

// NodeRecord describes a peer node discovered from a response packet.
// The ttl is recorded but no expiry is enforced.
type NodeRecord struct {
	ID        string
	IPAddress string
	TTL       uint32
}

// Registry is safe for concurrent use. Every operation is atomic and
// the list operations return point-in-time snapshots.
type Registry struct {
	m        sync.RWMutex
	services map[string]ServiceRecord
	nodes    map[string]NodeRecord
}

func New() *Registry {
	return &Registry{
		services: make(map[string]ServiceRecord),
		nodes:    make(map[string]NodeRecord),
	}
}

// AddService inserts or overwrites the record keyed by its ID.
func (r *Registry) AddService(s ServiceRecord) {
	r.m.Lock()
	defer r.m.Unlock()
	r.services[s.ID] = s
}

// Services returns a snapshot of all service records, sorted by ID.
// The returned slice is a copy and safe to use without locking.
func (r *Registry) Services() []ServiceRecord {
	r.m.RLock()
	defer r.m.RUnlock()
	s := make([]ServiceRecord, 0, len(r.services))
	for _, record := range r.services {
		s = append(s, record)
	}
	slices.SortFunc(s, func(a, b ServiceRecord) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

// AddNode inserts or overwrites the record keyed by its ID.
func (r *Registry) AddNode(n NodeRecord) {
	r.m.Lock()
	defer r.m.Unlock()
	r.nodes[n.ID] = n
}

// Nodes returns a snapshot of all node records, sorted by ID.
func (r *Registry) Nodes() []NodeRecord {
	r.m.RLock()
	defer r.m.RUnlock()
	s := make([]NodeRecord, 0, len(r.nodes))
	for _, record := range r.nodes {
		s = append(s, record)
	}
	slices.SortFunc(s, func(a, b NodeRecord) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

func (r *Registry) NumServices() int {
	r.m.RLock()
	defer r.m.RUnlock()
	return len(r.services)
}

func (r *Registry) NumNodes() int {
	r.m.RLock()
	defer r.m.RUnlock()
	return len(r.nodes)
}
