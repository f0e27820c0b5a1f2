package mcpserver

import (
	"context"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/service"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	coinDescription    = "Coin type to check, such as ETH, BTC, etc."
	addressDescription = "Address to check"
)

func coinAddressTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("coin", mcp.Required(), mcp.Description(coinDescription)),
		mcp.WithString("address", mcp.Required(), mcp.Description(addressDescription)),
	)
}

// coinAddressCall is the shape of the intelligence tools taking coin and address
type coinAddressCall func(ctx context.Context, coin, address string) (string, error)

func coinAddress(call coinAddressCall) textToolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (string, error) {
		coin, err := req.RequireString("coin")
		if err != nil {
			return "", err
		}
		address, err := req.RequireString("address")
		if err != nil {
			return "", err
		}
		return call(ctx, coin, address)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(coinAddressTool("get_address_labels",
		"Get the list of labels for the specified address"),
		s.handle("get_address_labels", coinAddress(s.intelligence.AddressLabels)))

	s.mcp.AddTool(coinAddressTool("get_address_overview",
		"Get balance and statistics for the specified address"),
		s.handle("get_address_overview", coinAddress(s.intelligence.AddressOverview)))

	s.mcp.AddTool(mcp.NewTool("get_risk_score",
		mcp.WithDescription("Get risk score for the specified address or transaction hash"),
		mcp.WithString("coin", mcp.Required(), mcp.Description(coinDescription)),
		mcp.WithString("address", mcp.Description("Address to check (either address or txid must be provided)")),
		mcp.WithString("txid", mcp.Description("Transaction hash to check (either address or txid must be provided)")),
	), s.handle("get_risk_score", s.riskScore))

	s.mcp.AddTool(coinAddressTool("get_address_action",
		"Get transaction action analysis results for the specified address"),
		s.handle("get_address_action", coinAddress(s.intelligence.AddressAction)))

	s.mcp.AddTool(coinAddressTool("get_address_trace",
		"Get configuration profile for the specified address, including interacted platforms and related threat intelligence data"),
		s.handle("get_address_trace", coinAddress(s.intelligence.AddressTrace)))

	s.mcp.AddTool(coinAddressTool("get_address_counterparty",
		"Get transaction counterparty analysis results for the specified address"),
		s.handle("get_address_counterparty", coinAddress(s.intelligence.AddressCounterparty)))

	s.mcp.AddTool(mcp.NewTool("check_malicious_funds",
		mcp.WithDescription("Check if the specified address contains malicious funds (e.g. tainted USDT)"),
		mcp.WithString("coin", mcp.Required(),
			mcp.Description("Coin type to check, automatically determined based on address format, prioritizes checking tainted USDT")),
		mcp.WithString("address", mcp.Required(), mcp.Description(addressDescription)),
	), s.handle("check_malicious_funds", coinAddress(s.intelligence.CheckMaliciousFunds)))

	s.mcp.AddTool(mcp.NewTool("detect_address_chain",
		mcp.WithDescription("Detect blockchain and possible tokens based on address format features"),
		mcp.WithString("address", mcp.Required(), mcp.Description("Address to detect")),
	), s.handle("detect_address_chain", s.detectAddressChain))

	s.mcp.AddTool(mcp.NewTool("analyze_transactions_recursive",
		mcp.WithDescription("Recursively analyze transaction relationships and build transaction graph"),
		mcp.WithString("coin", mcp.Required(), mcp.Description("Cryptocurrency type, such as ETH, BTC, etc.")),
		mcp.WithString("address", mcp.Required(), mcp.Description("Address to analyze")),
		mcp.WithNumber("max_depth", mcp.DefaultNumber(1), mcp.Min(1), mcp.Max(3),
			mcp.Description("Maximum analysis depth (default is 1 layer)")),
		mcp.WithNumber("start_timestamp", mcp.Description("Start timestamp (optional)")),
		mcp.WithNumber("end_timestamp", mcp.Description("End timestamp (optional)")),
		mcp.WithString("transaction_type", mcp.Enum("in", "out", "all"),
			mcp.Description(`Transaction type, can be "in", "out", or "all" (optional)`)),
	), s.analyzeTransactionsRecursive)
}

func (s *Server) riskScore(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	coin, err := req.RequireString("coin")
	if err != nil {
		return "", err
	}
	return s.intelligence.RiskScore(ctx, coin, req.GetString("address", ""), req.GetString("txid", ""))
}

func (s *Server) detectAddressChain(_ context.Context, req mcp.CallToolRequest) (string, error) {
	address, err := req.RequireString("address")
	if err != nil {
		return "", err
	}
	_, text := s.intelligence.DetectAddressChain(address)
	return text, nil
}

// analyzeTransactionsRecursive always answers with the formatted report. A failed analysis is flagged as an error result.
func (s *Server) analyzeTransactionsRecursive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "analyze_transactions_recursive"

	coin, err := req.RequireString("coin")
	if err != nil {
		s.observe(tool, "error")
		return mcp.NewToolResultError(err.Error()), nil
	}
	address, err := req.RequireString("address")
	if err != nil {
		s.observe(tool, "error")
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, run := s.analysis.AnalyzeAndFormat(ctx, service.AnalysisRequest{
		Coin:            coin,
		Address:         address,
		StartTimestamp:  int64(req.GetFloat("start_timestamp", 0)),
		EndTimestamp:    int64(req.GetFloat("end_timestamp", 0)),
		TransactionType: entity.TransactionType(req.GetString("transaction_type", "")),
		MaxDepth:        req.GetInt("max_depth", 1),
	})

	if run.Report.Error {
		s.observe(tool, "failed")
		s.logger.Warn("Recursive analysis failed",
			zap.String("run_id", run.ID),
			zap.String("message", run.Report.Message))
		return mcp.NewToolResultError(text), nil
	}

	s.observe(tool, "ok")
	return mcp.NewToolResultText(text), nil
}
