package main

import (
	"context"
	"fmt"
	"os"
	"time"

	appservice "misttrack-mcp-server/internal/application/service"
	"misttrack-mcp-server/internal/domain/repository"
	domainservice "misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/blockchain"
	"misttrack-mcp-server/internal/infrastructure/cache"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/database"
	"misttrack-mcp-server/internal/infrastructure/httpapi"
	"misttrack-mcp-server/internal/infrastructure/logger"
	"misttrack-mcp-server/internal/infrastructure/mcpserver"
	"misttrack-mcp-server/internal/infrastructure/messaging"
	"misttrack-mcp-server/internal/infrastructure/metrics"
	"misttrack-mcp-server/internal/infrastructure/misttrack"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "misttrack-mcp-server",
		Short:         "MCP server for MistTrack blockchain intelligence and recursive transaction analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return run(configFile)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")
	flags.StringP("key", "k", "", "MistTrack API key")
	flags.StringP("base-url", "u", "https://openapi.misttrack.io", "MistTrack API base URL")
	flags.Float64P("rate-limit", "r", 1.0, "API rate limit (requests per second)")
	flags.IntP("max-retries", "m", 3, "Maximum retry count")
	flags.DurationP("retry-delay", "d", time.Second, "Initial retry delay")
	flags.Float64P("retry-backoff", "b", 2.0, "Retry backoff multiplier")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"misttrack.api_key":       "key",
		"misttrack.base_url":      "base-url",
		"misttrack.rate_limit":    "rate-limit",
		"misttrack.max_retries":   "max-retries",
		"misttrack.retry_delay":   "retry-delay",
		"misttrack.retry_backoff": "retry-backoff",
		"app.log_level":           "log-level",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func run(configFile string) error {
	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create logger
	log, err := logger.NewLoggerWithFile(cfg.App.LogLevel, logger.FileConfig{
		Path:       cfg.App.LogFile,
		MaxSizeMB:  cfg.App.LogMaxSizeMB,
		MaxBackups: cfg.App.LogMaxBackups,
		MaxAgeDays: cfg.App.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.MistTrack.APIKey == "" {
		log.Warn("MistTrack API key is not set, intelligence tools will fail until one is configured")
	}

	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.Analysis),
		fx.Supply(&cfg.Cache),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.HTTP),
		fx.Supply(&cfg.MCP),
		fx.Supply(&cfg.Metrics),

		// Infrastructure providers
		fx.Provide(
			metrics.NewMetrics,
			func(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) *misttrack.Client {
				return misttrack.NewClient(cfg.MistTrack, m, log)
			},
			cache.NewCache,
			newLedgerClient,
			database.NewNeo4JClient,
			newAnalysisRepository,
			messaging.NewNATSPublisher,
			newEventPublisher,
			blockchain.NewAddressDetector,
		),

		// Application providers
		fx.Provide(
			newAnalysisService,
			func(client *misttrack.Client, detector *blockchain.AddressDetector, log *logger.Logger) *appservice.IntelligenceApplicationService {
				return appservice.NewIntelligenceApplicationService(client, detector, log)
			},
		),

		// Interface providers
		fx.Provide(
			func(s *appservice.IntelligenceApplicationService) httpapi.ChainDetector { return s },
			func(s *appservice.IntelligenceApplicationService) mcpserver.Intelligence { return s },
			func(m *metrics.Metrics) mcpserver.ToolObserver { return m },
			newHealthChecks,
			httpapi.NewServer,
			mcpserver.NewServer,
		),

		// Lifecycle hooks
		fx.Invoke(startInfrastructure),
		fx.Invoke(startHTTPServer),
		fx.Invoke(startMCPServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		return err
	}

	// Wait for a shutdown signal or the MCP client going away
	sig := <-app.Done()
	log.Info("Shutting down application...", zap.String("signal", sig.String()))

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		return err
	}

	log.Info("Application stopped successfully")
	return nil
}

func newLedgerClient(
	client *misttrack.Client,
	responseCache cache.Cache,
	cfg *config.CacheConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) domainservice.LedgerClient {
	return cache.NewCachedLedgerClient(client, responseCache, cfg.TTL, cfg.KeyPrefix, m, log)
}

// newAnalysisRepository returns nil when persistence is disabled
func newAnalysisRepository(cfg *config.Neo4JConfig, client *database.Neo4JClient, log *logger.Logger) repository.AnalysisRepository {
	if !cfg.Enabled {
		return nil
	}
	return database.NewNeo4JAnalysisRepository(client, log)
}

// newEventPublisher returns nil when event publication is disabled
func newEventPublisher(cfg *config.NATSConfig, publisher *messaging.NATSPublisher) appservice.AnalysisEventPublisher {
	if !cfg.Enabled {
		return nil
	}
	return publisher
}

func newAnalysisService(
	ledger domainservice.LedgerClient,
	repo repository.AnalysisRepository,
	publisher appservice.AnalysisEventPublisher,
	m *metrics.Metrics,
	cfg *config.AnalysisConfig,
	log *logger.Logger,
) domainservice.AnalysisService {
	var observer appservice.AnalysisObserver
	if m != nil {
		observer = m
	}
	return appservice.NewAnalysisApplicationService(ledger, repo, publisher, observer, cfg, log)
}

// newHealthChecks covers the optional backends that are enabled
func newHealthChecks(cfg *config.Config, neo4jClient *database.Neo4JClient, publisher *messaging.NATSPublisher) []httpapi.HealthCheck {
	var checks []httpapi.HealthCheck
	if cfg.Neo4J.Enabled {
		checks = append(checks, httpapi.HealthCheck{Name: "neo4j", Check: neo4jClient.IsConnected})
	}
	if cfg.NATS.Enabled {
		checks = append(checks, httpapi.HealthCheck{
			Name:  "nats",
			Check: func(context.Context) bool { return publisher.IsConnected() },
		})
	}
	return checks
}

// startInfrastructure connects the optional backends
func startInfrastructure(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	neo4jClient *database.Neo4JClient,
	publisher *messaging.NATSPublisher,
	responseCache cache.Cache,
	log *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Neo4J.Enabled {
				log.Info("Connecting to Neo4J database")
				if err := neo4jClient.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to Neo4J: %w", err)
				}
			}

			if err := publisher.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			log.Info("Infrastructure ready",
				zap.Bool("neo4j", cfg.Neo4J.Enabled),
				zap.Bool("nats", cfg.NATS.Enabled),
				zap.Bool("cache", responseCache != nil),
				zap.String("cache_backend", cfg.Cache.Backend),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cfg.Neo4J.Enabled {
				if err := neo4jClient.Close(ctx); err != nil {
					log.Error("Failed to close Neo4J connection", zap.Error(err))
				}
			}
			if responseCache != nil {
				if err := responseCache.Close(); err != nil {
					log.Error("Failed to close response cache", zap.Error(err))
				}
			}
			return publisher.Disconnect()
		},
	})
}

// startHTTPServer starts the HTTP API when enabled
func startHTTPServer(lifecycle fx.Lifecycle, cfg *config.HTTPConfig, server *httpapi.Server) {
	if !cfg.Enabled {
		return
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error { return server.Start() },
		OnStop:  server.Stop,
	})
}

// startMCPServer serves the protocol on stdin/stdout and shuts the application down when the client disconnects
func startMCPServer(
	lifecycle fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.MCPConfig,
	server *mcpserver.Server,
	log *logger.Logger,
) {
	if !cfg.Enabled {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.Serve(runCtx, os.Stdin, os.Stdout); err != nil {
					log.Error("MCP server failed", zap.Error(err))
				}
				if runCtx.Err() == nil {
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
