package service

import (
	"context"
	"sync"
	"sync/atomic"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WalkRequest describes one recursive expansion starting at a seed address
type WalkRequest struct {
	Coin           string
	Address        string
	StartTimestamp int64
	EndTimestamp   int64
	Type           entity.TransactionType
	MaxDepth       int
}

// WalkResult is the state accumulated by a walk
type WalkResult struct {
	Request      WalkRequest
	Visited      *VisitTracker
	Graph        *TransactionGraph
	Snapshots    *SnapshotStore
	EarlyStopped bool
	StopLabel    string

	// RootErr is set when the seed address could not be fetched
	RootErr error
}

// Walker expands the transaction graph outward from a seed address.
// At most one inflow and one outflow counterparty are followed per address,
// and the whole walk halts as soon as an exchange label is observed.
type Walker struct {
	client     LedgerClient
	classifier *LabelClassifier
	logger     *logger.Logger
}

// NewWalker creates a new walker
func NewWalker(client LedgerClient, classifier *LabelClassifier, logger *logger.Logger) *Walker {
	if classifier == nil {
		classifier = NewDefaultLabelClassifier()
	}
	return &Walker{
		client:     client,
		classifier: classifier,
		logger:     logger.WithComponent("walker"),
	}
}

// walkState is the per-walk mutable state; it is never shared across walks
type walkState struct {
	walker    *Walker
	req       WalkRequest
	visited   *VisitTracker
	graph     *TransactionGraph
	snapshots *SnapshotStore

	halted    atomic.Bool
	mu        sync.Mutex
	stopLabel string
	rootErr   error
}

// Walk runs the expansion and returns once every branch has finished
func (w *Walker) Walk(ctx context.Context, req WalkRequest) *WalkResult {
	if req.MaxDepth < 0 {
		req.MaxDepth = 0
	}

	state := &walkState{
		walker:    w,
		req:       req,
		visited:   NewVisitTracker(),
		graph:     NewTransactionGraph(),
		snapshots: NewSnapshotStore(),
	}

	w.logger.Debug("Starting walk",
		zap.String("coin", req.Coin),
		zap.String("address", req.Address),
		zap.Int("max_depth", req.MaxDepth))

	state.expand(ctx, req.Address, 0, "", "")

	result := &WalkResult{
		Request:      req,
		Visited:      state.visited,
		Graph:        state.graph,
		Snapshots:    state.snapshots,
		EarlyStopped: state.halted.Load(),
		StopLabel:    state.stopLabel,
		RootErr:      state.rootErr,
	}

	w.logger.Debug("Walk finished",
		zap.String("address", req.Address),
		zap.Int("visited", state.visited.Len()),
		zap.Int("edges", state.graph.EdgeCount()),
		zap.Bool("early_stopped", result.EarlyStopped))

	return result
}

func (s *walkState) expand(ctx context.Context, address string, depth int, parent, parentTx string) {
	if depth > s.req.MaxDepth || s.halted.Load() {
		return
	}
	if depth > 0 && ctx.Err() != nil {
		return
	}
	if !s.visited.Visit(address) {
		return
	}

	page, err := s.walker.client.FetchTransactions(ctx, entity.TransactionQuery{
		Coin:           s.req.Coin,
		Address:        address,
		StartTimestamp: s.req.StartTimestamp,
		EndTimestamp:   s.req.EndTimestamp,
		Type:           s.req.Type,
	})
	if err != nil {
		s.walker.logger.Warn("Failed to fetch transactions",
			zap.String("address", address),
			zap.Int("depth", depth),
			zap.Error(err))
		if depth == 0 {
			s.rootErr = err
		}
		return
	}

	snapshot := newSnapshot(address, depth, parent, parentTx, page)
	s.snapshots.Add(snapshot)
	s.graph.AddSnapshot(snapshot)

	for _, edge := range snapshot.Edges() {
		if s.walker.classifier.IsExchangeSink(edge.Label) {
			s.halt(address, edge.Label)
			return
		}
	}

	if depth >= s.req.MaxDepth || s.halted.Load() {
		return
	}

	var g errgroup.Group
	for _, edges := range [][]entity.Edge{snapshot.Inflow, snapshot.Outflow} {
		next, ok := s.nextCounterparty(edges)
		if !ok {
			continue
		}
		g.Go(func() error {
			s.expand(ctx, next.Counterparty, depth+1, address, next.TxHashes[0])
			return nil
		})
	}
	_ = g.Wait()
}

// nextCounterparty picks the first unvisited counterparty that carries transactions
func (s *walkState) nextCounterparty(edges []entity.Edge) (entity.Edge, bool) {
	for _, edge := range edges {
		if s.visited.Has(edge.Counterparty) {
			continue
		}
		if edge.HasTransactions() {
			return edge, true
		}
	}
	return entity.Edge{}, false
}

func (s *walkState) halt(address, label string) {
	if s.halted.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.stopLabel = label
		s.mu.Unlock()

		s.walker.logger.Info("Exchange label reached, stopping walk",
			zap.String("address", address),
			zap.String("label", label))
	}
}

func newSnapshot(address string, depth int, parent, parentTx string, page *entity.TransactionPage) *entity.AddressSnapshot {
	snapshot := &entity.AddressSnapshot{
		Address:       address,
		Depth:         depth,
		ParentAddress: parent,
		ParentTxHash:  parentTx,
		Inflow:        []entity.Edge{},
		Outflow:       []entity.Edge{},
	}
	if page == nil {
		return snapshot
	}

	for _, tr := range page.In {
		snapshot.Inflow = append(snapshot.Inflow, transferToEdge(tr, entity.DirectionIn))
	}
	for _, tr := range page.Out {
		snapshot.Outflow = append(snapshot.Outflow, transferToEdge(tr, entity.DirectionOut))
	}
	return snapshot
}

func transferToEdge(tr entity.Transfer, direction entity.Direction) entity.Edge {
	txHashes := tr.TxHashes
	if txHashes == nil {
		txHashes = []string{}
	}
	return entity.Edge{
		Counterparty: tr.Address,
		Amount:       tr.Amount,
		Label:        tr.Label,
		TxHashes:     txHashes,
		Direction:    direction,
	}
}
