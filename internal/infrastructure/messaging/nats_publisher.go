package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher publishes analysis events to NATS
type NATSPublisher struct {
	mu     sync.RWMutex
	conn   *nats.Conn
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(cfg *config.NATSConfig, logger *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		config: cfg,
		logger: logger.WithComponent("nats-publisher"),
	}
}

// Connect connects to the NATS server. It is a no-op when NATS is disabled.
func (n *NATSPublisher) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("misttrack-mcp-server"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()

	n.logger.Info("Connected to NATS", zap.String("subject", n.CompletedSubject()))
	return nil
}

// CompletedSubject is the subject analysis-completed events are published on
func (n *NATSPublisher) CompletedSubject() string {
	return fmt.Sprintf("%s.analysis.completed", n.config.SubjectPrefix)
}

// PublishAnalysisCompleted publishes one event. Without a connection it does nothing.
func (n *NATSPublisher) PublishAnalysisCompleted(ctx context.Context, event *entity.AnalysisCompletedEvent) error {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()

	if conn == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis event: %w", err)
	}

	msg := nats.NewMsg(n.CompletedSubject())
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set("Run-Id", event.RunID)

	if err := conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish analysis event: %w", err)
	}

	n.logger.Debug("Published analysis event",
		zap.String("run_id", event.RunID),
		zap.String("subject", msg.Subject))
	return nil
}

// IsConnected reports whether the publisher holds a live connection
func (n *NATSPublisher) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.conn != nil && n.conn.IsConnected()
}

// Disconnect drains and closes the connection
func (n *NATSPublisher) Disconnect() error {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()

	if conn == nil {
		return nil
	}

	n.logger.Info("Disconnecting from NATS")
	if err := conn.Drain(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
