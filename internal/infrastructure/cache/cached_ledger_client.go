package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// HitRecorder receives cache hit and miss notifications
type HitRecorder interface {
	ObserveCacheLookup(hit bool)
}

// CachedLedgerClient caches transaction pages in front of another ledger client.
// Failed fetches are never cached.
type CachedLedgerClient struct {
	next      service.LedgerClient
	cache     Cache
	ttl       time.Duration
	keyPrefix string
	recorder  HitRecorder
	logger    *logger.Logger
}

// NewCachedLedgerClient creates a caching decorator. A nil cache disables caching.
func NewCachedLedgerClient(next service.LedgerClient, cache Cache, ttl time.Duration, keyPrefix string, recorder HitRecorder, logger *logger.Logger) *CachedLedgerClient {
	return &CachedLedgerClient{
		next:      next,
		cache:     cache,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		recorder:  recorder,
		logger:    logger.WithComponent("ledger-cache"),
	}
}

// FetchTransactions returns a cached page or fetches and stores it
func (c *CachedLedgerClient) FetchTransactions(ctx context.Context, query entity.TransactionQuery) (*entity.TransactionPage, error) {
	if c.cache == nil {
		return c.next.FetchTransactions(ctx, query)
	}

	key := c.key(query)
	if data, found, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
	} else if found {
		var page entity.TransactionPage
		if err := json.Unmarshal(data, &page); err == nil {
			c.observe(true)
			return &page, nil
		}
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}
	c.observe(false)

	page, err := c.next.FetchTransactions(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(page); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("Failed to store cache entry", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

func (c *CachedLedgerClient) key(q entity.TransactionQuery) string {
	return fmt.Sprintf("%stx:%s:%s:%d:%d:%s:%d", c.keyPrefix, q.Coin, q.Address, q.StartTimestamp, q.EndTimestamp, q.Type, q.Page)
}

func (c *CachedLedgerClient) observe(hit bool) {
	if c.recorder != nil {
		c.recorder.ObserveCacheLookup(hit)
	}
}
