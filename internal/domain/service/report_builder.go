package service

import (
	"fmt"

	"misttrack-mcp-server/internal/domain/entity"
)

// ReportBuilder reduces the state of a finished walk into an AnalysisReport
type ReportBuilder struct {
	classifier *LabelClassifier
}

// NewReportBuilder creates a new report builder
func NewReportBuilder(classifier *LabelClassifier) *ReportBuilder {
	if classifier == nil {
		classifier = NewDefaultLabelClassifier()
	}
	return &ReportBuilder{classifier: classifier}
}

// Build produces the report. It does not mutate the walk result.
func (b *ReportBuilder) Build(result *WalkResult) *entity.AnalysisReport {
	req := result.Request

	if _, ok := result.Snapshots.Get(req.Address); !ok {
		message := "no transaction data available for root address"
		if result.RootErr != nil {
			message = fmt.Sprintf("failed to fetch transactions for %s: %v", req.Address, result.RootErr)
		}
		report := entity.NewFailedAnalysisReport(req.Coin, req.Address, message)
		report.TotalAddresses = result.Visited.Len()
		return report
	}

	report := entity.NewAnalysisReport(req.Coin, req.Address)
	report.TotalAddresses = result.Visited.Len()
	report.EarlyStopped = result.EarlyStopped

	for _, snapshot := range result.Snapshots.All() {
		report.DepthStatistics[snapshot.Depth]++

		for _, edge := range snapshot.Edges() {
			if edge.Label == "" {
				continue
			}
			if snapshot.Depth == 0 {
				report.LabelStatistics[edge.Label]++
			}

			nextDepth := snapshot.Depth + 1
			report.LabeledAddressesByDepth[nextDepth] = append(report.LabeledAddressesByDepth[nextDepth], entity.LabeledAddress{
				Address: edge.Counterparty,
				Label:   edge.Label,
			})

			for _, category := range b.classifier.Categories(edge.Label) {
				report.ImportantAddresses = append(report.ImportantAddresses, entity.ImportantAddress{
					Address:   edge.Counterparty,
					Label:     edge.Label,
					Category:  category,
					Depth:     nextDepth,
					Direction: edge.Direction,
					Amount:    edge.Amount,
					TxHashes:  edge.TxHashes,
				})
			}
		}
	}

	paths := collectPaths(result.Graph, req.Address, req.MaxDepth)
	report.FundFlowPaths = filterPaths(paths, report.LabeledAddressesByDepth[1])

	return report
}

// collectPaths enumerates paths from root that end at maxDepth hops or at an
// address with no recorded edges. No address appears twice within a path, root
// included, so a branch whose every onward edge closes a cycle yields nothing.
func collectPaths(graph *TransactionGraph, root string, maxDepth int) [][]entity.PathStep {
	paths := [][]entity.PathStep{}
	onPath := map[string]bool{root: true}

	var dfs func(current string, path []entity.PathStep)
	dfs = func(current string, path []entity.PathStep) {
		edges := graph.EdgesFrom(current)
		if len(path) >= maxDepth || len(edges) == 0 {
			recordPath(&paths, path)
			return
		}

		for _, edge := range edges {
			if onPath[edge.To] {
				continue
			}
			onPath[edge.To] = true
			dfs(edge.To, append(path, entity.PathStep{
				From:      current,
				To:        edge.To,
				Amount:    edge.Amount,
				Label:     edge.Label,
				Direction: edge.Direction,
				TxHashes:  edge.TxHashes,
			}))
			delete(onPath, edge.To)
		}
	}

	dfs(root, nil)
	return paths
}

func recordPath(paths *[][]entity.PathStep, path []entity.PathStep) {
	if len(path) == 0 {
		return
	}
	recorded := make([]entity.PathStep, len(path))
	copy(recorded, path)
	*paths = append(*paths, recorded)
}

// filterPaths keeps paths where some step touches a labeled depth-1 address
func filterPaths(paths [][]entity.PathStep, labeled []entity.LabeledAddress) [][]entity.PathStep {
	filtered := [][]entity.PathStep{}
	if len(labeled) == 0 {
		return filtered
	}

	addresses := make(map[string]struct{}, len(labeled))
	for _, la := range labeled {
		addresses[la.Address] = struct{}{}
	}

	for _, path := range paths {
		for _, step := range path {
			_, fromLabeled := addresses[step.From]
			_, toLabeled := addresses[step.To]
			if fromLabeled || toLabeled {
				filtered = append(filtered, path)
				break
			}
		}
	}
	return filtered
}
