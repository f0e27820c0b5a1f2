package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"
)

// expiryHeaderSize is the unix-nano expiry prepended to every stored value
const expiryHeaderSize = 8

// MemoryCache is an in-process cache backed by bigcache
type MemoryCache struct {
	cache  *bigcache.BigCache
	now    func() time.Time
	logger *logger.Logger
}

// NewMemoryCache creates a new in-process cache
func NewMemoryCache(cfg *config.CacheConfig, logger *logger.Logger) (*MemoryCache, error) {
	lifeWindow := cfg.TTL
	if lifeWindow <= 0 {
		lifeWindow = 10 * time.Minute
	}

	bigCacheConfig := bigcache.DefaultConfig(lifeWindow)
	bigCacheConfig.Shards = 64
	bigCacheConfig.MaxEntriesInWindow = 10000
	bigCacheConfig.MaxEntrySize = 4096
	bigCacheConfig.CleanWindow = time.Minute
	bigCacheConfig.HardMaxCacheSize = cfg.MemoryMaxMB
	bigCacheConfig.Verbose = false

	cache, err := bigcache.New(context.Background(), bigCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	log := logger.WithComponent("memory-cache")
	log.Info("Memory cache initialized",
		zap.Duration("life_window", lifeWindow),
		zap.Int("max_mb", cfg.MemoryMaxMB))

	return &MemoryCache{cache: cache, now: time.Now, logger: log}, nil
}

// Get returns an unexpired value
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := m.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(entry) < expiryHeaderSize {
		return nil, false, nil
	}

	expiresAt := int64(binary.BigEndian.Uint64(entry[:expiryHeaderSize]))
	if expiresAt > 0 && m.now().UnixNano() >= expiresAt {
		_ = m.cache.Delete(key)
		return nil, false, nil
	}

	value := make([]byte, len(entry)-expiryHeaderSize)
	copy(value, entry[expiryHeaderSize:])
	return value, true, nil
}

// Set stores a value. A non-positive ttl keeps it for the cache life window.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = m.now().Add(ttl).UnixNano()
	}

	entry := make([]byte, expiryHeaderSize+len(value))
	binary.BigEndian.PutUint64(entry[:expiryHeaderSize], uint64(expiresAt))
	copy(entry[expiryHeaderSize:], value)

	return m.cache.Set(key, entry)
}

// Close stops the cleanup goroutine
func (m *MemoryCache) Close() error {
	return m.cache.Close()
}
