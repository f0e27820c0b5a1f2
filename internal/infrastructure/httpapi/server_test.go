package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appservice "misttrack-mcp-server/internal/application/service"
	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/repository"
	"misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/blockchain"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"
	"misttrack-mcp-server/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalysis struct {
	lastReq    service.AnalysisRequest
	historyErr error
}

func (f *fakeAnalysis) Analyze(_ context.Context, req service.AnalysisRequest) *entity.AnalysisRun {
	f.lastReq = req
	report := entity.NewAnalysisReport(req.Coin, req.Address)
	report.TotalAddresses = 3
	return &entity.AnalysisRun{ID: "run-1", MaxDepth: req.MaxDepth, Report: report}
}

func (f *fakeAnalysis) AnalyzeAndFormat(ctx context.Context, req service.AnalysisRequest) (string, *entity.AnalysisRun) {
	return "formatted report", f.Analyze(ctx, req)
}

func (f *fakeAnalysis) GetAnalysisHistory(_ context.Context, _, _ string, _ int) ([]*repository.AnalysisSummary, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return []*repository.AnalysisSummary{{RunID: "run-1", MaxDepth: 2}}, nil
}

func newTestServer(analysis *fakeAnalysis, checks ...HealthCheck) *Server {
	detector := appservice.NewIntelligenceApplicationService(nil, blockchain.NewAddressDetector(), logger.NewNopLogger())
	m := metrics.NewMetrics(&config.MetricsConfig{Enabled: true, Namespace: "test"})
	return NewServer(&config.HTTPConfig{Mode: gin.TestMode}, analysis, detector, checks, m, logger.NewNopLogger())
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(&fakeAnalysis{}), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealth_DependencyDown(t *testing.T) {
	s := newTestServer(&fakeAnalysis{},
		HealthCheck{Name: "neo4j", Check: func(context.Context) bool { return true }},
		HealthCheck{Name: "nats", Check: func(context.Context) bool { return false }},
	)

	rec := get(t, s, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","dependencies":{"neo4j":"up","nats":"down"}}`, rec.Body.String())
}

func TestAnalyze_JSON(t *testing.T) {
	analysis := &fakeAnalysis{}
	rec := get(t, newTestServer(analysis),
		"/api/v1/analysis?coin=ETH&address=0xroot&max_depth=2&transaction_type=out&start_timestamp=10&end_timestamp=20")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.AnalysisRequest{
		Coin:            "ETH",
		Address:         "0xroot",
		StartTimestamp:  10,
		EndTimestamp:    20,
		TransactionType: entity.TransactionTypeOut,
		MaxDepth:        2,
	}, analysis.lastReq)

	var body struct {
		RunID  string                `json:"run_id"`
		Report entity.AnalysisReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 3, body.Report.TotalAddresses)
}

func TestAnalyze_Text(t *testing.T) {
	rec := get(t, newTestServer(&fakeAnalysis{}), "/api/v1/analysis?coin=ETH&address=0xroot&format=text")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "formatted report", rec.Body.String())
	assert.Equal(t, "run-1", rec.Header().Get("X-Analysis-Run-ID"))
}

func TestAnalyze_BadRequest(t *testing.T) {
	s := newTestServer(&fakeAnalysis{})

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/analysis?coin=ETH").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/analysis?coin=ETH&address=0xroot&format=xml").Code)
}

func TestHistory(t *testing.T) {
	rec := get(t, newTestServer(&fakeAnalysis{}), "/api/v1/analysis/history?coin=ETH&address=0xroot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)

	rec = get(t, newTestServer(&fakeAnalysis{historyErr: appservice.ErrHistoryUnavailable}), "/api/v1/analysis/history?coin=ETH&address=0xroot")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetect(t *testing.T) {
	rec := get(t, newTestServer(&fakeAnalysis{}), "/api/v1/detect/TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t")

	require.Equal(t, http.StatusOK, rec.Code)
	var detection entity.ChainDetection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detection))
	assert.True(t, detection.Success)
	assert.Contains(t, detection.RecommendedCoins, "USDT-TRC20")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeAnalysis{})
	get(t, s, "/health")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}
