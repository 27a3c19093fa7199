package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/config"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/handler"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/repository"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("optimistic_retries", cfg.OptimisticRetries),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "coffee-admin")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Document store ---
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}
	defer store.Close(context.Background())

	ds := datastore.New(store, metrics, logger)
	checks := map[string]port.HealthChecker{"datastore": ds}

	// --- Cache and alert fan-out ---
	side, err := openSideChannels(ctx, cfg, checks, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer side.Close()

	// --- Repositories ---
	users := repository.NewUserRepository(ds, cfg.UserScanLimit)
	prefs := repository.NewPreferencesRepository(ds)
	orders := repository.NewOrderRepository(ds)
	inventory := repository.NewInventoryRepository(ds)
	stock := repository.NewStockRepository(ds)
	products := repository.NewProductRepository(ds, side.productCache, metrics)
	reviews := repository.NewReviewRepository(ds)
	admins := repository.NewAdminRepository(ds)

	// --- Services ---
	retry := service.OptimisticConfig(cfg.OptimisticRetries)
	userSvc := service.NewUserService(users, prefs, retry, logger)

	deps := handler.Deps{
		Auth:         service.NewAuthService(admins, cfg.JWTSecret, cfg.JWTAccessTTL, logger),
		Users:        userSvc,
		Inventory:    service.NewInventoryService(inventory, stock, side.publisher, retry, metrics, logger),
		Orders:       service.NewOrderService(orders, userSvc, logger),
		Products:     service.NewProductService(products, reviews, logger),
		Analytics:    service.NewAnalyticsService(users, products, orders, inventory, stock, metrics, logger),
		HealthChecks: checks,
		Metrics:      metrics,
	}

	// --- Router ---
	router := handler.NewRouter(deps, logger)

	// --- Server ---
	srv := handler.NewServer(fmt.Sprintf(":%d", cfg.Port), router)

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
		_ = srv.Close()
		return
	}

	logger.Info("server stopped")
}
