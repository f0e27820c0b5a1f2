package cache

import (
	"context"
	"fmt"
	"time"

	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"
)

// Cache is a byte-oriented key/value store with per-entry expiry
type Cache interface {
	// Get returns the value and whether it was found
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the backend
	Close() error
}

// NewCache creates the backend selected by configuration.
// It returns nil when caching is disabled.
func NewCache(cfg *config.CacheConfig, logger *logger.Logger) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		memory, err := NewMemoryCache(cfg, logger)
		if err != nil {
			return nil, err
		}
		return memory, nil
	case "redis":
		redis, err := NewRedisCache(cfg, logger)
		if err != nil {
			return nil, err
		}
		return redis, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
