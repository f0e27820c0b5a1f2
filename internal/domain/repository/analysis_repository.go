package repository

import (
	"context"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
)

// AnalysisRepository defines the interface for persisting completed analyses
type AnalysisRepository interface {
	// SaveAnalysis stores the run, the visited addresses and every fetched flow
	SaveAnalysis(ctx context.Context, run *entity.AnalysisRun) error

	// GetAnalysesByAddress retrieves summaries of past runs rooted at an address
	GetAnalysesByAddress(ctx context.Context, coin, address string, limit int) ([]*AnalysisSummary, error)
}

// AnalysisSummary is the stored header of a past analysis run
type AnalysisSummary struct {
	RunID              string    `json:"run_id"`
	Coin               string    `json:"coin"`
	RootAddress        string    `json:"root_address"`
	MaxDepth           int64     `json:"max_depth"`
	TotalAddresses     int64     `json:"total_addresses"`
	ImportantAddresses int64     `json:"important_addresses"`
	CreatedAt          time.Time `json:"created_at"`
}
