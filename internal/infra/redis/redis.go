// Package redis provides the Redis-backed cache and the stock alert
// publisher.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// AlertChannel is the pub/sub channel stock alerts are published on.
const AlertChannel = "coffee:stock-alerts"

// NewClient parses url and verifies the connection.
func NewClient(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr))
	return client, nil
}

// Cache stores JSON-encoded values under a key prefix. Errors degrade to
// cache misses and are logged.
type Cache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ port.Cache[string] = (*Cache[string])(nil)

// NewCache creates a cache whose keys live under prefix.
func NewCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Cache[T] {
	return &Cache[T]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *Cache[T]) key(k string) string { return c.prefix + ":" + k }

func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis: cache get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		c.logger.Warn("redis: cache entry undecodable", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

func (c *Cache[T]) Set(ctx context.Context, key string, value T) {
	b, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis: cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(key), b, c.ttl).Err(); err != nil {
		c.logger.Warn("redis: cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("redis: cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// AlertPublisher publishes stock alerts as JSON on AlertChannel.
type AlertPublisher struct {
	client *redis.Client
}

var _ port.AlertPublisher = (*AlertPublisher)(nil)

func NewAlertPublisher(client *redis.Client) *AlertPublisher {
	return &AlertPublisher{client: client}
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *domain.StockAlert) error {
	b, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := p.client.Publish(ctx, AlertChannel, b).Err(); err != nil {
		return &domain.ErrExternalService{Service: "redis", Err: err}
	}
	return nil
}

// HealthCheck adapts a client to the /healthz checker.
type HealthCheck struct {
	Client *redis.Client
}

var _ port.HealthChecker = HealthCheck{}

func (h HealthCheck) Ping(ctx context.Context) error {
	return h.Client.Ping(ctx).Err()
}
