package service

import (
	"context"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/repository"
)

// AnalysisRequest describes a recursive transaction analysis
type AnalysisRequest struct {
	Coin            string                 `json:"coin"`
	Address         string                 `json:"address"`
	StartTimestamp  int64                  `json:"start_timestamp,omitempty"`
	EndTimestamp    int64                  `json:"end_timestamp,omitempty"`
	TransactionType entity.TransactionType `json:"transaction_type,omitempty"`
	MaxDepth        int                    `json:"max_depth"`
}

// AnalysisService defines the interface for recursive transaction analysis
type AnalysisService interface {
	// Analyze runs the analysis. Failures are reported inside the returned run.
	Analyze(ctx context.Context, req AnalysisRequest) *entity.AnalysisRun

	// AnalyzeAndFormat runs the analysis and renders its report as text
	AnalyzeAndFormat(ctx context.Context, req AnalysisRequest) (string, *entity.AnalysisRun)

	// GetAnalysisHistory lists stored analyses rooted at an address
	GetAnalysisHistory(ctx context.Context, coin, address string, limit int) ([]*repository.AnalysisSummary, error)
}
