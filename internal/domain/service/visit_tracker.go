package service

import "sync"

// VisitTracker is the set of addresses already expanded during one analysis
type VisitTracker struct {
	mu      sync.Mutex
	visited map[string]struct{}
}

// NewVisitTracker creates an empty tracker
func NewVisitTracker() *VisitTracker {
	return &VisitTracker{visited: make(map[string]struct{})}
}

// Visit marks the address as visited and reports whether this call was the first to do so.
// Check and mark happen under one lock so concurrent branches never expand the same address twice.
func (v *VisitTracker) Visit(address string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.visited[address]; ok {
		return false
	}
	v.visited[address] = struct{}{}
	return true
}

// Has reports whether the address was already visited
func (v *VisitTracker) Has(address string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.visited[address]
	return ok
}

// Len returns the number of visited addresses
func (v *VisitTracker) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.visited)
}
