// Command bootstrap-admin provisions the first back-office admin, or prints
// the SQL the Supabase backend needs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/config"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/mongostore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/repository"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	var (
		email       = flag.String("email", "", "admin email (required)")
		name        = flag.String("name", "", "admin display name (required)")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"), "admin password, defaults to $BOOTSTRAP_ADMIN_PASSWORD")
		role        = flag.String("role", string(domain.RoleOwner), "owner, manager or staff")
		printSchema = flag.Bool("print-schema", false, "print the Supabase schema SQL and exit")
	)
	flag.Parse()

	if *printSchema {
		fmt.Print(supabase.Schema)
		return
	}

	_ = config.LoadDotEnv(".env")
	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.StoreBackend == config.BackendMemory {
		logger.Fatal("bootstrap needs a persistent STORE_BACKEND (supabase or mongo)")
	}
	if *email == "" || *name == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}
	defer store.Close(context.Background())

	ds := datastore.New(store, observability.NewMetrics(), logger)
	auth := service.NewAuthService(repository.NewAdminRepository(ds), cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	admin, err := auth.BootstrapAdmin(ctx, &domain.BootstrapAdminRequest{
		Email:       *email,
		DisplayName: *name,
		Password:    *password,
		Role:        domain.AdminRole(*role),
	})
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	logger.Info("admin provisioned",
		zap.String("admin_id", admin.ID),
		zap.String("email", admin.Email),
		zap.String("role", string(admin.Role)),
	)
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.DocumentStore, error) {
	if cfg.StoreBackend == config.BackendMongo {
		store, err := mongostore.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return supabase.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase", logger),
		resilience.Config{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff, MaxConcurrency: cfg.MaxConcurrency},
		cfg.SupabasePollInterval,
		logger,
	), nil
}
