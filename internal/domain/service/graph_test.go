package service

import (
	"sync"
	"testing"

	"misttrack-mcp-server/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestVisitTrackerConcurrentVisit(t *testing.T) {
	tracker := NewVisitTracker()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Visit("A") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, tracker.Len())
	assert.True(t, tracker.Has("A"))
}

func TestSnapshotStoreOrdersByDepth(t *testing.T) {
	store := NewSnapshotStore()
	assert.True(t, store.Add(&entity.AddressSnapshot{Address: "A", Depth: 0}))
	assert.True(t, store.Add(&entity.AddressSnapshot{Address: "C", Depth: 2}))
	assert.True(t, store.Add(&entity.AddressSnapshot{Address: "B", Depth: 1}))
	assert.True(t, store.Add(&entity.AddressSnapshot{Address: "D", Depth: 1}))
	assert.False(t, store.Add(&entity.AddressSnapshot{Address: "A", Depth: 3}))

	var order []string
	for _, snapshot := range store.All() {
		order = append(order, snapshot.Address)
	}
	assert.Equal(t, []string{"A", "B", "D", "C"}, order)
}

func TestGraphEdgesFromReturnsCopy(t *testing.T) {
	graph := NewTransactionGraph()
	graph.AddSnapshot(&entity.AddressSnapshot{
		Address: "A",
		Outflow: []entity.Edge{{Counterparty: "B", Amount: 1, Direction: entity.DirectionOut}},
	})

	edges := graph.EdgesFrom("A")
	edges[0].To = "Z"

	assert.Equal(t, "B", graph.EdgesFrom("A")[0].To)
	assert.Empty(t, graph.EdgesFrom("missing"))
}
