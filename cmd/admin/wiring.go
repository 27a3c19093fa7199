package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/config"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/memstore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/mongostore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/redis"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.uber.org/zap"
)

// openStore builds the document store selected by STORE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		logger.Info("using Supabase as document store", zap.String("supabase_url", cfg.SupabaseURL))
		return supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase", logger),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			cfg.SupabasePollInterval,
			logger,
		), nil
	case config.BackendMongo:
		logger.Info("using MongoDB as document store", zap.String("database", cfg.MongoDatabase))
		store, err := mongostore.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		logger.Warn("using in-memory document store, data is lost on restart")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// sideChannels are the product cache and the alert publisher. Without
// REDIS_URL the cache is process-local and alerts are not published.
type sideChannels struct {
	productCache port.Cache[[]domain.Product]
	publisher    port.AlertPublisher
	close        func()
}

func (s *sideChannels) Close() { s.close() }

func openSideChannels(ctx context.Context, cfg *config.Config, checks map[string]port.HealthChecker, logger *zap.Logger) (*sideChannels, error) {
	if cfg.RedisURL == "" {
		local := cache.New[[]domain.Product](cfg.CacheTTL)
		logger.Info("redis not configured, using in-memory product cache")
		return &sideChannels{productCache: local, close: local.Close}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}
	checks["redis"] = redis.HealthCheck{Client: client}

	return &sideChannels{
		productCache: redis.NewCache[[]domain.Product](client, "coffee:products", cfg.CacheTTL, logger),
		publisher:    redis.NewAlertPublisher(client),
		close:        func() { _ = client.Close() },
	}, nil
}
