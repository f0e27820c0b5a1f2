package database

import (
	"context"
	"fmt"

	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// schemaStatement is a named constraint or index of the analysis graph
type schemaStatement struct {
	name   string
	cypher string
}

var analysisSchema = []schemaStatement{
	{"analysis_run_id", "CREATE CONSTRAINT analysis_run_id IF NOT EXISTS FOR (a:Analysis) REQUIRE a.run_id IS UNIQUE"},
	{"address_coin_address", "CREATE CONSTRAINT address_coin_address IF NOT EXISTS FOR (w:Address) REQUIRE (w.coin, w.address) IS UNIQUE"},
	{"analysis_root", "CREATE INDEX analysis_root IF NOT EXISTS FOR (a:Analysis) ON (a.coin, a.root_address)"},
	{"analysis_created_at", "CREATE INDEX analysis_created_at IF NOT EXISTS FOR (a:Analysis) ON (a.created_at)"},
	{"address_label", "CREATE INDEX address_label IF NOT EXISTS FOR (w:Address) ON (w.label)"},
	{"flow_run_id", "CREATE INDEX flow_run_id IF NOT EXISTS FOR ()-[f:FLOW]-() ON (f.run_id)"},
}

// Neo4JClient owns the driver used to persist analysis graphs
type Neo4JClient struct {
	driver neo4j.DriverWithContext
	config *config.Neo4JConfig
	logger *logger.Logger
}

// NewNeo4JClient creates a new Neo4J client. Nothing is dialed until Connect.
func NewNeo4JClient(cfg *config.Neo4JConfig, logger *logger.Logger) *Neo4JClient {
	return &Neo4JClient{
		config: cfg,
		logger: logger.WithComponent("neo4j-client"),
	}
}

// Connect dials the database, verifies it and ensures the analysis schema exists
func (n *Neo4JClient) Connect(ctx context.Context) error {
	n.logger.Info("Connecting to Neo4J database",
		zap.String("uri", n.config.URI),
		zap.String("database", n.config.Database))

	driver, err := neo4j.NewDriverWithContext(
		n.config.URI,
		neo4j.BasicAuth(n.config.Username, n.config.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = n.config.MaxConnectionPoolSize
			c.ConnectionAcquisitionTimeout = n.config.ConnectionAcquisitionTimeout
			c.SocketConnectTimeout = n.config.ConnectTimeout
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create Neo4J driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		n.logger.Error("Neo4J is unreachable", zap.Error(err))
		return fmt.Errorf("failed to verify Neo4J connectivity: %w", err)
	}
	n.driver = driver

	created := n.ensureSchema(ctx)
	n.logger.Info("Connected to Neo4J database",
		zap.Int("schema_statements", len(analysisSchema)),
		zap.Int("schema_applied", created))
	return nil
}

// Close releases the driver
func (n *Neo4JClient) Close(ctx context.Context) error {
	if n.driver == nil {
		return nil
	}
	n.logger.Info("Closing Neo4J connection")
	err := n.driver.Close(ctx)
	n.driver = nil
	return err
}

// NewSession opens a session on the configured database
func (n *Neo4JClient) NewSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return n.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.config.Database,
		AccessMode:   mode,
	})
}

// ensureSchema applies every schema statement and returns how many succeeded.
// Failures are logged and skipped.
func (n *Neo4JClient) ensureSchema(ctx context.Context) int {
	session := n.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	applied := 0
	for _, stmt := range analysisSchema {
		result, err := session.Run(ctx, stmt.cypher, nil)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			n.logger.Warn("Failed to apply schema statement", zap.String("name", stmt.name), zap.Error(err))
			continue
		}
		applied++
	}
	return applied
}

// IsConnected reports whether the database answers
func (n *Neo4JClient) IsConnected(ctx context.Context) bool {
	if n.driver == nil {
		return false
	}
	return n.driver.VerifyConnectivity(ctx) == nil
}
