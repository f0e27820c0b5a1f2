package service

import (
	"context"
	"testing"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalker(client LedgerClient) *Walker {
	return NewWalker(client, NewDefaultLabelClassifier(), logger.NewNopLogger())
}

func TestWalkCycleExpandsEachAddressOnce(t *testing.T) {
	ledger := newFakeLedger().
		out("A", transfer("B", 1, "", "0xab")).
		out("B", transfer("A", 1, "", "0xba"))

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 3})

	assert.Equal(t, 2, result.Visited.Len())
	assert.Equal(t, 1, ledger.fetchCount("A"))
	assert.Equal(t, 1, ledger.fetchCount("B"))
	assert.Equal(t, 2, result.Snapshots.Len())
}

func TestWalkRespectsDepthBound(t *testing.T) {
	ledger := newFakeLedger().
		out("A", transfer("B", 1, "", "0x1")).
		out("B", transfer("C", 1, "", "0x2")).
		out("C", transfer("D", 1, "", "0x3")).
		out("D", transfer("E", 1, "", "0x4"))

	for maxDepth := 0; maxDepth <= 3; maxDepth++ {
		result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: maxDepth})

		assert.Equal(t, maxDepth+1, result.Visited.Len(), "max depth %d", maxDepth)
		for _, snapshot := range result.Snapshots.All() {
			assert.LessOrEqual(t, snapshot.Depth, maxDepth)
		}
	}
}

func TestWalkFollowsOneCounterpartyPerDirection(t *testing.T) {
	ledger := newFakeLedger().
		in("A",
			transfer("I1", 1, "", "0xi1"),
			transfer("I2", 1, "", "0xi2")).
		out("A",
			transfer("O0", 1, ""),
			transfer("O1", 1, "", "0xo1"),
			transfer("O2", 1, "", "0xo2"))

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 1})

	assert.Equal(t, 3, result.Visited.Len())
	assert.True(t, result.Visited.Has("I1"))
	assert.True(t, result.Visited.Has("O1"))
	assert.False(t, result.Visited.Has("I2"))
	assert.False(t, result.Visited.Has("O0"), "edges without transactions are not followed")

	child, ok := result.Snapshots.Get("O1")
	require.True(t, ok)
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, "A", child.ParentAddress)
	assert.Equal(t, "0xo1", child.ParentTxHash)
}

func TestWalkStopsAtExchangeLabel(t *testing.T) {
	ledger := newFakeLedger().
		out("A", transfer("B", 10, "Binance Hot Wallet", "0x1")).
		in("A", transfer("C", 5, "", "0x2"))

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 3})

	assert.True(t, result.EarlyStopped)
	assert.Equal(t, "Binance Hot Wallet", result.StopLabel)
	assert.Equal(t, 1, result.Visited.Len())
	assert.Equal(t, []string{"A"}, ledger.fetched)

	report := NewReportBuilder(nil).Build(result)
	assert.False(t, report.Error)
	assert.True(t, report.EarlyStopped)
	assert.Equal(t, map[int]int{0: 1}, report.DepthStatistics)
}

func TestWalkExchangeMatchIsCaseSensitive(t *testing.T) {
	ledger := newFakeLedger().
		out("A", transfer("B", 1, "binance deposit", "0x1"))

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 1})

	assert.False(t, result.EarlyStopped)
	assert.Equal(t, 2, result.Visited.Len())
}

func TestWalkRootFailure(t *testing.T) {
	ledger := newFakeLedger().fail("A")

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 2})

	require.Error(t, result.RootErr)
	assert.Equal(t, 1, result.Visited.Len())
	assert.Equal(t, 0, result.Snapshots.Len())
}

func TestWalkChildFailureIsSilentLeaf(t *testing.T) {
	ledger := newFakeLedger().
		out("A", transfer("B", 1, "", "0x1")).
		fail("B")

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 2})

	assert.NoError(t, result.RootErr)
	assert.Equal(t, 2, result.Visited.Len())
	_, ok := result.Snapshots.Get("B")
	assert.False(t, ok)
}

func TestWalkPassesQueryFilters(t *testing.T) {
	ledger := newFakeLedger()

	newTestWalker(ledger).Walk(context.Background(), WalkRequest{
		Coin:           "TRX",
		Address:        "A",
		StartTimestamp: 100,
		EndTimestamp:   200,
		Type:           entity.TransactionTypeOut,
		MaxDepth:       1,
	})

	require.Len(t, ledger.queries, 1)
	assert.Equal(t, entity.TransactionQuery{
		Coin:           "TRX",
		Address:        "A",
		StartTimestamp: 100,
		EndTimestamp:   200,
		Type:           entity.TransactionTypeOut,
	}, ledger.queries[0])
}

func TestWalkRecordsGraphEdges(t *testing.T) {
	ledger := newFakeLedger().
		in("A", transfer("X", 2, "src", "0x1")).
		out("A", transfer("Y", 3, "dst", "0x2"))

	result := newTestWalker(ledger).Walk(context.Background(), WalkRequest{Coin: "ETH", Address: "A", MaxDepth: 0})

	assert.Equal(t, []entity.GraphEdge{
		{To: "A", Amount: 2, Label: "src", TxHashes: []string{"0x1"}, Direction: entity.DirectionIn},
	}, result.Graph.EdgesFrom("X"))
	assert.Equal(t, []entity.GraphEdge{
		{To: "Y", Amount: 3, Label: "dst", TxHashes: []string{"0x2"}, Direction: entity.DirectionOut},
	}, result.Graph.EdgesFrom("A"))
	assert.Equal(t, 2, result.Graph.EdgeCount())
}
