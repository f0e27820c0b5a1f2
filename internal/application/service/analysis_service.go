package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/repository"
	"misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHistoryUnavailable is returned when analysis persistence is disabled
var ErrHistoryUnavailable = errors.New("analysis history is not available: persistence is disabled")

// AnalysisEventPublisher announces finished analyses
type AnalysisEventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event *entity.AnalysisCompletedEvent) error
}

// AnalysisObserver records analysis outcomes
type AnalysisObserver interface {
	ObserveAnalysis(outcome string, addresses int, duration time.Duration)
}

var _ service.AnalysisService = (*AnalysisApplicationService)(nil)

// AnalysisApplicationService implements AnalysisService interface
type AnalysisApplicationService struct {
	walker    *service.Walker
	builder   *service.ReportBuilder
	repo      repository.AnalysisRepository
	publisher AnalysisEventPublisher
	observer  AnalysisObserver
	config    *config.AnalysisConfig
	now       func() time.Time
	logger    *logger.Logger
}

// NewAnalysisApplicationService creates a new analysis application service.
// repo, publisher and observer are optional.
func NewAnalysisApplicationService(
	ledger service.LedgerClient,
	repo repository.AnalysisRepository,
	publisher AnalysisEventPublisher,
	observer AnalysisObserver,
	cfg *config.AnalysisConfig,
	logger *logger.Logger,
) *AnalysisApplicationService {
	classifier := service.NewDefaultLabelClassifier()
	return &AnalysisApplicationService{
		walker:    service.NewWalker(ledger, classifier, logger),
		builder:   service.NewReportBuilder(classifier),
		repo:      repo,
		publisher: publisher,
		observer:  observer,
		config:    cfg,
		now:       time.Now,
		logger:    logger.WithComponent("analysis-service"),
	}
}

// ClampDepth applies the default and bounds to a requested depth
func (s *AnalysisApplicationService) ClampDepth(depth int) int {
	if depth <= 0 {
		depth = s.config.DefaultDepth
	}
	if depth < s.config.MinDepth {
		depth = s.config.MinDepth
	}
	if depth > s.config.MaxDepth {
		depth = s.config.MaxDepth
	}
	return depth
}

// Analyze runs a recursive analysis, then stores and announces it
func (s *AnalysisApplicationService) Analyze(ctx context.Context, req service.AnalysisRequest) *entity.AnalysisRun {
	started := s.now()
	req.MaxDepth = s.ClampDepth(req.MaxDepth)

	run := &entity.AnalysisRun{
		ID:        uuid.NewString(),
		MaxDepth:  req.MaxDepth,
		StartedAt: started,
	}

	if err := validateRequest(req); err != nil {
		run.Report = entity.NewFailedAnalysisReport(req.Coin, req.Address, err.Error())
		run.Snapshots = []*entity.AddressSnapshot{}
		s.finish(ctx, run, started)
		return run
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":    run.ID,
		"coin":      req.Coin,
		"address":   req.Address,
		"max_depth": req.MaxDepth,
		"type":      string(req.TransactionType),
	}).Info("Starting recursive analysis")

	result := s.walker.Walk(ctx, service.WalkRequest{
		Coin:           req.Coin,
		Address:        req.Address,
		StartTimestamp: req.StartTimestamp,
		EndTimestamp:   req.EndTimestamp,
		Type:           req.TransactionType,
		MaxDepth:       req.MaxDepth,
	})

	run.Report = s.builder.Build(result)
	run.Snapshots = result.Snapshots.All()
	s.finish(ctx, run, started)
	return run
}

// AnalyzeAndFormat runs an analysis and renders the report as text
func (s *AnalysisApplicationService) AnalyzeAndFormat(ctx context.Context, req service.AnalysisRequest) (string, *entity.AnalysisRun) {
	run := s.Analyze(ctx, req)
	return service.FormatReport(run.Report, s.now()), run
}

// GetAnalysisHistory lists stored analyses rooted at an address
func (s *AnalysisApplicationService) GetAnalysisHistory(ctx context.Context, coin, address string, limit int) ([]*repository.AnalysisSummary, error) {
	if s.repo == nil {
		return nil, ErrHistoryUnavailable
	}
	if limit <= 0 {
		limit = s.config.HistoryLimit
	}
	return s.repo.GetAnalysesByAddress(ctx, coin, address, limit)
}

func (s *AnalysisApplicationService) finish(ctx context.Context, run *entity.AnalysisRun, started time.Time) {
	run.Duration = s.now().Sub(started)
	report := run.Report

	outcome := "ok"
	switch {
	case report.Error:
		outcome = "failed"
	case report.EarlyStopped:
		outcome = "early_stopped"
	}
	if s.observer != nil {
		s.observer.ObserveAnalysis(outcome, report.TotalAddresses, run.Duration)
	}

	s.logger.Info("Recursive analysis finished",
		zap.String("run_id", run.ID),
		zap.String("outcome", outcome),
		zap.Int("total_addresses", report.TotalAddresses),
		zap.Int("important_addresses", len(report.ImportantAddresses)),
		zap.Int("fund_flow_paths", len(report.FundFlowPaths)),
		zap.Duration("duration", run.Duration))

	if s.repo != nil {
		if err := s.repo.SaveAnalysis(ctx, run); err != nil {
			s.logger.Error("Failed to save analysis", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := entity.NewAnalysisCompletedEvent(run, s.now())
		if err := s.publisher.PublishAnalysisCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish analysis event", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

func validateRequest(req service.AnalysisRequest) error {
	if req.Coin == "" {
		return errors.New("coin is required")
	}
	if req.Address == "" {
		return errors.New("address is required")
	}
	if !req.TransactionType.IsValid() {
		return fmt.Errorf("invalid transaction type %q, expected in, out or all", req.TransactionType)
	}
	if req.EndTimestamp > 0 && req.StartTimestamp > req.EndTimestamp {
		return errors.New("start_timestamp must not be after end_timestamp")
	}
	return nil
}
