package database

import (
	"context"
	"fmt"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/repository"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4JAnalysisRepository implements AnalysisRepository interface
type Neo4JAnalysisRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JAnalysisRepository creates a new Neo4J analysis repository
func NewNeo4JAnalysisRepository(client *Neo4JClient, logger *logger.Logger) repository.AnalysisRepository {
	return &Neo4JAnalysisRepository{
		client: client,
		logger: logger.WithComponent("neo4j-analysis-repo"),
	}
}

const saveAnalysisQuery = `
	MERGE (a:Analysis {run_id: $run_id})
	SET a.coin = $coin,
		a.root_address = $root_address,
		a.max_depth = $max_depth,
		a.total_addresses = $total_addresses,
		a.important_addresses = $important_addresses,
		a.fund_flow_paths = $fund_flow_paths,
		a.early_stopped = $early_stopped,
		a.failed = $failed,
		a.message = $message,
		a.duration_ms = $duration_ms,
		a.created_at = datetime($created_at)
`

const saveVisitedQuery = `
	MATCH (a:Analysis {run_id: $run_id})
	UNWIND $addresses AS addr
	MERGE (w:Address {coin: $coin, address: addr.address})
	ON CREATE SET w.first_analyzed = datetime($created_at)
	SET w.last_analyzed = datetime($created_at)
	MERGE (a)-[v:VISITED]->(w)
	SET v.depth = addr.depth,
		v.parent_address = addr.parent_address,
		v.parent_tx_hash = addr.parent_tx_hash
`

const saveFlowsQuery = `
	UNWIND $flows AS f
	MERGE (s:Address {coin: $coin, address: f.from})
	MERGE (t:Address {coin: $coin, address: f.to})
	CREATE (s)-[:FLOW {
		run_id: $run_id,
		amount: f.amount,
		label: f.label,
		direction: f.direction,
		tx_hashes: f.tx_hashes
	}]->(t)
`

const saveLabelsQuery = `
	UNWIND $labels AS l
	MERGE (w:Address {coin: $coin, address: l.address})
	SET w.label = l.label
`

// SaveAnalysis stores the run, the visited addresses and every fetched flow in one transaction
func (r *Neo4JAnalysisRepository) SaveAnalysis(ctx context.Context, run *entity.AnalysisRun) error {
	session := r.client.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	header := analysisParams(run)
	visited := visitedParams(run)
	flows, labels := flowParams(run)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, saveAnalysisQuery, header); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, saveVisitedQuery, withRun(header, "addresses", visited)); err != nil {
			return nil, err
		}
		if len(flows) > 0 {
			if _, err := tx.Run(ctx, saveFlowsQuery, withRun(header, "flows", flows)); err != nil {
				return nil, err
			}
		}
		if len(labels) > 0 {
			if _, err := tx.Run(ctx, saveLabelsQuery, withRun(header, "labels", labels)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", run.ID, err)
	}

	r.logger.Debug("Analysis saved",
		zap.String("run_id", run.ID),
		zap.Int("addresses", len(visited)),
		zap.Int("flows", len(flows)))

	return nil
}

// GetAnalysesByAddress retrieves summaries of past runs rooted at an address, newest first
func (r *Neo4JAnalysisRepository) GetAnalysesByAddress(ctx context.Context, coin, address string, limit int) ([]*repository.AnalysisSummary, error) {
	session := r.client.NewSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (a:Analysis {coin: $coin, root_address: $address})
		RETURN a.run_id, a.coin, a.root_address, a.max_depth, a.total_addresses, a.important_addresses, a.created_at
		ORDER BY a.created_at DESC
		LIMIT $limit
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]interface{}{
			"coin":    coin,
			"address": address,
			"limit":   int64(limit),
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses for %s: %w", address, err)
	}

	records := result.([]*neo4j.Record)
	summaries := make([]*repository.AnalysisSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, recordToSummary(record.Values))
	}
	return summaries, nil
}

func analysisParams(run *entity.AnalysisRun) map[string]interface{} {
	report := run.Report
	return map[string]interface{}{
		"run_id":              run.ID,
		"coin":                report.Coin,
		"root_address":        report.RootAddress,
		"max_depth":           int64(run.MaxDepth),
		"total_addresses":     int64(report.TotalAddresses),
		"important_addresses": int64(len(report.ImportantAddresses)),
		"fund_flow_paths":     int64(len(report.FundFlowPaths)),
		"early_stopped":       report.EarlyStopped,
		"failed":              report.Error,
		"message":             report.Message,
		"duration_ms":         run.Duration.Milliseconds(),
		"created_at":          run.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// withRun copies the header parameters and adds one list parameter
func withRun(header map[string]interface{}, key string, value interface{}) map[string]interface{} {
	params := make(map[string]interface{}, len(header)+1)
	for k, v := range header {
		params[k] = v
	}
	params[key] = value
	return params
}

func visitedParams(run *entity.AnalysisRun) []map[string]interface{} {
	addresses := make([]map[string]interface{}, 0, len(run.Snapshots)+1)
	seen := make(map[string]bool, len(run.Snapshots))
	for _, snapshot := range run.Snapshots {
		seen[snapshot.Address] = true
		addresses = append(addresses, map[string]interface{}{
			"address":        snapshot.Address,
			"depth":          int64(snapshot.Depth),
			"parent_address": snapshot.ParentAddress,
			"parent_tx_hash": snapshot.ParentTxHash,
		})
	}

	// The root is recorded even when its fetch failed
	if root := run.Report.RootAddress; !seen[root] {
		addresses = append(addresses, map[string]interface{}{
			"address":        root,
			"depth":          int64(0),
			"parent_address": "",
			"parent_tx_hash": "",
		})
	}
	return addresses
}

// flowParams converts snapshot edges to from/to flows and collects counterparty labels
func flowParams(run *entity.AnalysisRun) ([]map[string]interface{}, []map[string]interface{}) {
	var flows []map[string]interface{}
	var labels []map[string]interface{}
	labeled := make(map[string]bool)

	for _, snapshot := range run.Snapshots {
		for _, edge := range snapshot.Edges() {
			from, to := snapshot.Address, edge.Counterparty
			if edge.Direction == entity.DirectionIn {
				from, to = edge.Counterparty, snapshot.Address
			}

			flows = append(flows, map[string]interface{}{
				"from":      from,
				"to":        to,
				"amount":    edge.Amount,
				"label":     edge.Label,
				"direction": string(edge.Direction),
				"tx_hashes": edge.TxHashes,
			})

			if edge.Label != "" && !labeled[edge.Counterparty] {
				labeled[edge.Counterparty] = true
				labels = append(labels, map[string]interface{}{
					"address": edge.Counterparty,
					"label":   edge.Label,
				})
			}
		}
	}
	return flows, labels
}

func recordToSummary(values []any) *repository.AnalysisSummary {
	summary := &repository.AnalysisSummary{}
	if v, ok := values[0].(string); ok {
		summary.RunID = v
	}
	if v, ok := values[1].(string); ok {
		summary.Coin = v
	}
	if v, ok := values[2].(string); ok {
		summary.RootAddress = v
	}
	if v, ok := values[3].(int64); ok {
		summary.MaxDepth = v
	}
	if v, ok := values[4].(int64); ok {
		summary.TotalAddresses = v
	}
	if v, ok := values[5].(int64); ok {
		summary.ImportantAddresses = v
	}
	if v, ok := values[6].(time.Time); ok {
		summary.CreatedAt = v
	}
	return summary
}
