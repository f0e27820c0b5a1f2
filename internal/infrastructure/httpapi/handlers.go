package httpapi

import (
	"errors"
	"net/http"

	"misttrack-mcp-server/internal/application/service"
	"misttrack-mcp-server/internal/domain/entity"
	domainservice "misttrack-mcp-server/internal/domain/service"

	"github.com/gin-gonic/gin"
)

type analysisQuery struct {
	Coin            string `form:"coin" binding:"required"`
	Address         string `form:"address" binding:"required"`
	MaxDepth        int    `form:"max_depth"`
	StartTimestamp  int64  `form:"start_timestamp"`
	EndTimestamp    int64  `form:"end_timestamp"`
	TransactionType string `form:"transaction_type"`
	Format          string `form:"format"`
}

type historyQuery struct {
	Coin    string `form:"coin" binding:"required"`
	Address string `form:"address" binding:"required"`
	Limit   int    `form:"limit"`
}

// health reports 503 when any configured dependency is down
func (s *Server) health(c *gin.Context) {
	if len(s.checks) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	status, code := "ok", http.StatusOK
	dependencies := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if check.Check(c.Request.Context()) {
			dependencies[check.Name] = "up"
			continue
		}
		dependencies[check.Name] = "down"
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{"status": status, "dependencies": dependencies})
}

// analyze runs a recursive analysis. Failed analyses still return 200 with error set in the report.
func (s *Server) analyze(c *gin.Context) {
	var q analysisQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := domainservice.AnalysisRequest{
		Coin:            q.Coin,
		Address:         q.Address,
		StartTimestamp:  q.StartTimestamp,
		EndTimestamp:    q.EndTimestamp,
		TransactionType: entity.TransactionType(q.TransactionType),
		MaxDepth:        q.MaxDepth,
	}

	switch q.Format {
	case "", "json":
		run := s.analysis.Analyze(c.Request.Context(), req)
		c.JSON(http.StatusOK, gin.H{
			"run_id":      run.ID,
			"max_depth":   run.MaxDepth,
			"duration_ms": run.Duration.Milliseconds(),
			"report":      run.Report,
		})
	case "text":
		text, run := s.analysis.AnalyzeAndFormat(c.Request.Context(), req)
		c.Header("X-Analysis-Run-ID", run.ID)
		c.String(http.StatusOK, text)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or text"})
	}
}

func (s *Server) history(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summaries, err := s.analysis.GetAnalysisHistory(c.Request.Context(), q.Coin, q.Address, q.Limit)
	if errors.Is(err, service.ErrHistoryUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analyses": summaries})
}

func (s *Server) detect(c *gin.Context) {
	detection, _ := s.detector.DetectAddressChain(c.Param("address"))
	c.JSON(http.StatusOK, detection)
}
