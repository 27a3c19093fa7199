package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// healthCheckTimeout bounds each dependency ping in /healthz.
const healthCheckTimeout = 2 * time.Second

// Deps carries everything the router serves.
type Deps struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Inventory *service.InventoryService
	Orders    *service.OrderService
	Products  *service.ProductService
	Analytics *service.AnalyticsService

	// HealthChecks are pinged by /healthz, keyed by dependency name.
	HealthChecks map[string]port.HealthChecker
	Metrics      *observability.Metrics
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	if deps.Metrics != nil {
		r.Use(MetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(deps.HealthChecks, logger))
	r.Get("/readyz", readyzHandler())
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if deps.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			}))
			return
		}

		// =============================================
		// 1. Authentication
		// POST /v1/auth/login
		// =============================================
		r.Post("/auth/login", authLoginHandler(deps.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(deps.Auth, logger))

			r.Get("/auth/me", authMeHandler())

			// =============================================
			// 2. Products & reviews
			// =============================================
			r.Get("/products", listProductsHandler(deps.Products, logger))
			r.Post("/products", createProductHandler(deps.Products, logger))
			r.Post("/products/import-legacy", importLegacyHandler(deps.Products, logger))
			r.Get("/products/{id}", getProductHandler(deps.Products, logger))
			r.Put("/products/{id}", updateProductHandler(deps.Products, logger))
			r.Delete("/products/{id}", deleteProductHandler(deps.Products, logger))
			r.Get("/products/{id}/reviews", listReviewsHandler(deps.Products, logger))
			r.Post("/products/{id}/reviews", createReviewHandler(deps.Products, logger))

			// =============================================
			// 3. Orders
			// GET /v1/orders/stream is a server-sent event feed
			// =============================================
			r.Get("/orders", listOrdersHandler(deps.Orders, logger))
			r.Post("/orders", createOrderHandler(deps.Orders, logger))
			r.Get("/orders/stream", orderStreamHandler(deps.Orders, logger))
			r.Get("/orders/{id}", getOrderHandler(deps.Orders, logger))
			r.Delete("/orders/{id}", deleteOrderHandler(deps.Orders, logger))
			r.Put("/orders/{id}/status", updateOrderStatusHandler(deps.Orders, logger))

			// =============================================
			// 4. Inventory & stock alerts
			// =============================================
			r.Get("/inventory", listInventoryHandler(deps.Inventory, logger))
			r.Post("/inventory", createInventoryHandler(deps.Inventory, logger))
			r.Get("/inventory/low-stock", lowStockHandler(deps.Inventory, logger))
			r.Get("/inventory/movements/recent", recentMovementsHandler(deps.Inventory, logger))
			r.Get("/inventory/{id}", getInventoryHandler(deps.Inventory, logger))
			r.Delete("/inventory/{id}", deleteInventoryHandler(deps.Inventory, logger))
			r.Put("/inventory/{id}/levels", updateLevelsHandler(deps.Inventory, logger))
			r.Put("/inventory/{id}/levels/{size}", setStockLevelHandler(deps.Inventory, logger))
			r.Post("/inventory/{id}/adjust", adjustStockHandler(deps.Inventory, logger))
			r.Get("/inventory/{id}/forecast", forecastHandler(deps.Inventory, logger))
			r.Get("/inventory/{id}/movements", listMovementsHandler(deps.Inventory, logger))

			r.Get("/alerts", listAlertsHandler(deps.Inventory, logger))
			r.Post("/alerts/read-all", markAllAlertsReadHandler(deps.Inventory, logger))
			r.Post("/alerts/{id}/read", markAlertReadHandler(deps.Inventory, logger))
			r.Delete("/alerts/{id}", deleteAlertHandler(deps.Inventory, logger))

			// =============================================
			// 5. Users, loyalty & preferences
			// =============================================
			r.Get("/users", listUsersHandler(deps.Users, logger))
			r.Post("/users", createUserHandler(deps.Users, logger))
			r.Get("/users/{id}", getUserHandler(deps.Users, logger))
			r.Put("/users/{id}", updateUserHandler(deps.Users, logger))
			r.Delete("/users/{id}", deleteUserHandler(deps.Users, logger))
			r.Post("/users/{id}/loyalty/award", loyaltyHandler(deps.Users, true, logger))
			r.Post("/users/{id}/loyalty/deduct", loyaltyHandler(deps.Users, false, logger))
			r.Get("/users/{id}/preferences", getPreferencesHandler(deps.Users, logger))
			r.Put("/users/{id}/preferences", savePreferencesHandler(deps.Users, logger))
			r.Post("/users/{id}/favorites/{productId}", addFavoriteHandler(deps.Users, logger))
			r.Delete("/users/{id}/favorites/{productId}", removeFavoriteHandler(deps.Users, logger))

			// =============================================
			// 6. Analytics
			// =============================================
			r.Get("/analytics/sales", salesSummaryHandler(deps.Analytics, logger))
			r.Get("/analytics/dashboard", dashboardHandler(deps.Analytics, logger))
			r.Get("/analytics/datastore", datastoreStatsHandler(deps.Analytics))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(checks map[string]port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := domain.FormatTime(time.Now())

		services := []domain.ServiceHealth{
			{Name: "admin-api", Status: "healthy", LastChecked: now},
		}

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		overall := "healthy"
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			start := time.Now()
			err := checks[name].Ping(ctx)
			cancel()

			sh := domain.ServiceHealth{
				Name:        name,
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				sh.Status = "unhealthy"
				sh.Error = err.Error()
				overall = "unhealthy"
			}
			services = append(services, sh)
		}

		status := http.StatusOK
		if overall != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
