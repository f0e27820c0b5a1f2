package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is a shared cache backed by redis
type RedisCache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisCache connects to redis and verifies the connection
func NewRedisCache(cfg *config.CacheConfig, logger *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	log := logger.WithComponent("redis-cache")
	log.Info("Connected to redis cache", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))

	return &RedisCache{client: client, logger: log}, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, logger *logger.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger.WithComponent("redis-cache")}
}

// Get returns the stored value
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Set stores a value with expiry. A non-positive ttl stores it without expiry.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the redis connection pool
func (r *RedisCache) Close() error {
	return r.client.Close()
}
