package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/repository"
)

type stubLedger struct {
	mu      sync.Mutex
	pages   map[string]*entity.TransactionPage
	fetched []entity.TransactionQuery
}

func (l *stubLedger) FetchTransactions(_ context.Context, query entity.TransactionQuery) (*entity.TransactionPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fetched = append(l.fetched, query)
	if page, ok := l.pages[query.Address]; ok {
		return page, nil
	}
	return &entity.TransactionPage{}, nil
}

type stubRepository struct {
	saved     []*entity.AnalysisRun
	summaries []*repository.AnalysisSummary
	lastLimit int
	saveErr   error
}

func (r *stubRepository) SaveAnalysis(_ context.Context, run *entity.AnalysisRun) error {
	r.saved = append(r.saved, run)
	return r.saveErr
}

func (r *stubRepository) GetAnalysesByAddress(_ context.Context, _, _ string, limit int) ([]*repository.AnalysisSummary, error) {
	r.lastLimit = limit
	return r.summaries, nil
}

type stubPublisher struct {
	events []*entity.AnalysisCompletedEvent
}

func (p *stubPublisher) PublishAnalysisCompleted(_ context.Context, event *entity.AnalysisCompletedEvent) error {
	p.events = append(p.events, event)
	return nil
}

type stubObserver struct {
	outcomes []string
}

func (o *stubObserver) ObserveAnalysis(outcome string, _ int, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

var errUpstream = errors.New("upstream unavailable")

// stubIntelligence returns canned intelligence responses or errUpstream when failing is set
type stubIntelligence struct {
	stubLedger
	failing        bool
	labels         *entity.AddressLabels
	overview       *entity.AddressOverview
	risk           *entity.RiskScore
	action         *entity.AddressAction
	trace          *entity.AddressTrace
	counterparties []entity.Counterparty
	riskCalls      int
}

func (s *stubIntelligence) GetAPIStatus(context.Context) (*entity.APIStatus, error) {
	if s.failing {
		return nil, errUpstream
	}
	return &entity.APIStatus{SupportCoin: []string{"ETH", "BTC"}}, nil
}

func (s *stubIntelligence) GetAddressLabels(context.Context, string, string) (*entity.AddressLabels, error) {
	if s.failing {
		return nil, errUpstream
	}
	return s.labels, nil
}

func (s *stubIntelligence) GetAddressOverview(context.Context, string, string) (*entity.AddressOverview, error) {
	if s.failing {
		return nil, errUpstream
	}
	return s.overview, nil
}

func (s *stubIntelligence) GetRiskScore(context.Context, string, string, string) (*entity.RiskScore, error) {
	s.riskCalls++
	if s.failing {
		return nil, errUpstream
	}
	return s.risk, nil
}

func (s *stubIntelligence) GetAddressAction(context.Context, string, string) (*entity.AddressAction, error) {
	if s.failing {
		return nil, errUpstream
	}
	return s.action, nil
}

func (s *stubIntelligence) GetAddressTrace(context.Context, string, string) (*entity.AddressTrace, error) {
	if s.failing {
		return nil, errUpstream
	}
	return s.trace, nil
}

func (s *stubIntelligence) GetAddressCounterparty(context.Context, string, string) ([]entity.Counterparty, error) {
	if s.failing {
		return nil, errUpstream
	}
	return s.counterparties, nil
}
