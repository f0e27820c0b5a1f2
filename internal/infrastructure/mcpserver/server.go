package mcpserver

import (
	"context"
	"io"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Intelligence renders the intelligence endpoints as tool output
type Intelligence interface {
	SupportedCoins(ctx context.Context) ([]string, error)
	AddressLabels(ctx context.Context, coin, address string) (string, error)
	AddressOverview(ctx context.Context, coin, address string) (string, error)
	RiskScore(ctx context.Context, coin, address, txid string) (string, error)
	AddressAction(ctx context.Context, coin, address string) (string, error)
	AddressTrace(ctx context.Context, coin, address string) (string, error)
	AddressCounterparty(ctx context.Context, coin, address string) (string, error)
	CheckMaliciousFunds(ctx context.Context, coin, address string) (string, error)
	DetectAddressChain(address string) (*entity.ChainDetection, string)
}

// ToolObserver records tool invocations
type ToolObserver interface {
	ObserveToolCall(tool, outcome string)
}

// Server is the MCP protocol server exposing tools, resources and prompts
type Server struct {
	mcp          *server.MCPServer
	analysis     service.AnalysisService
	intelligence Intelligence
	observer     ToolObserver
	logger       *logger.Logger
}

// NewServer creates a new MCP server and registers every tool, resource and prompt
func NewServer(
	cfg *config.MCPConfig,
	analysis service.AnalysisService,
	intelligence Intelligence,
	observer ToolObserver,
	logger *logger.Logger,
) *Server {
	s := &Server{
		mcp: server.NewMCPServer(cfg.Name, cfg.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
			server.WithRecovery(),
		),
		analysis:     analysis,
		intelligence: intelligence,
		observer:     observer,
		logger:       logger.WithComponent("mcp-server"),
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// Serve speaks the protocol over in/out until ctx is cancelled or in is closed
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Logger))

	s.logger.Info("MCP server listening on stdio")
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() == nil {
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// textToolHandler produces the text of a successful call or an error shown to the caller
type textToolHandler func(ctx context.Context, req mcp.CallToolRequest) (string, error)

// handle adapts a textToolHandler, turning failures into error results rather than protocol errors
func (s *Server) handle(name string, h textToolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := h(ctx, req)
		if err != nil {
			s.observe(name, "error")
			s.logger.Warn("Tool call failed", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.observe(name, "ok")
		return mcp.NewToolResultText(text), nil
	}
}

func (s *Server) observe(tool, outcome string) {
	if s.observer != nil {
		s.observer.ObserveToolCall(tool, outcome)
	}
}
