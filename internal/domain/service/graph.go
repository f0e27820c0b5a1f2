package service

import (
	"sort"
	"sync"

	"misttrack-mcp-server/internal/domain/entity"
)

// TransactionGraph is the directed adjacency map built while walking.
// Inflow edges are keyed by the counterparty and point at the queried address;
// outflow edges are keyed by the queried address and point at the counterparty.
type TransactionGraph struct {
	mu        sync.RWMutex
	adjacency map[string][]entity.GraphEdge
}

// NewTransactionGraph creates an empty graph
func NewTransactionGraph() *TransactionGraph {
	return &TransactionGraph{adjacency: make(map[string][]entity.GraphEdge)}
}

// AddSnapshot appends one graph edge per snapshot edge
func (g *TransactionGraph) AddSnapshot(snapshot *entity.AddressSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, in := range snapshot.Inflow {
		g.adjacency[in.Counterparty] = append(g.adjacency[in.Counterparty], entity.GraphEdge{
			To:        snapshot.Address,
			Amount:    in.Amount,
			Label:     in.Label,
			TxHashes:  in.TxHashes,
			Direction: entity.DirectionIn,
		})
	}

	for _, out := range snapshot.Outflow {
		g.adjacency[snapshot.Address] = append(g.adjacency[snapshot.Address], entity.GraphEdge{
			To:        out.Counterparty,
			Amount:    out.Amount,
			Label:     out.Label,
			TxHashes:  out.TxHashes,
			Direction: entity.DirectionOut,
		})
	}
}

// EdgesFrom returns a copy of the edges keyed by the address
func (g *TransactionGraph) EdgesFrom(address string) []entity.GraphEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.adjacency[address]
	out := make([]entity.GraphEdge, len(edges))
	copy(out, edges)
	return out
}

// EdgeCount returns the total number of edges in the graph
func (g *TransactionGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	count := 0
	for _, edges := range g.adjacency {
		count += len(edges)
	}
	return count
}

// SnapshotStore keeps the per-address snapshots of one analysis
type SnapshotStore struct {
	mu        sync.RWMutex
	byAddress map[string]*entity.AddressSnapshot
	order     []*entity.AddressSnapshot
}

// NewSnapshotStore creates an empty store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{byAddress: make(map[string]*entity.AddressSnapshot)}
}

// Add records a snapshot. A second snapshot for the same address is rejected.
func (s *SnapshotStore) Add(snapshot *entity.AddressSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[snapshot.Address]; exists {
		return false
	}
	s.byAddress[snapshot.Address] = snapshot
	s.order = append(s.order, snapshot)
	return true
}

// Get returns the snapshot of an address
func (s *SnapshotStore) Get(address string) (*entity.AddressSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.byAddress[address]
	return snapshot, ok
}

// All returns the snapshots ordered by depth, then by discovery
func (s *SnapshotStore) All() []*entity.AddressSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]*entity.AddressSnapshot, len(s.order))
	copy(snapshots, s.order)
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Depth < snapshots[j].Depth
	})
	return snapshots
}

// Len returns the number of stored snapshots
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}
