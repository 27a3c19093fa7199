package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/memstore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/repository"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockPublisher struct {
	mu     sync.Mutex
	alerts []domain.StockAlert
	err    error
}

func (m *mockPublisher) PublishAlert(_ context.Context, a *domain.StockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, *a)
	return m.err
}

func (m *mockPublisher) published() []domain.StockAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StockAlert(nil), m.alerts...)
}

// --- Harness ---

type harness struct {
	store     *memstore.Store
	ds        *datastore.Service
	metrics   *observability.Metrics
	users     *repository.UserRepository
	prefs     *repository.PreferencesRepository
	orders    *repository.OrderRepository
	inventory *repository.InventoryRepository
	stock     *repository.StockRepository
	products  *repository.ProductRepository
	reviews   *repository.ReviewRepository
	admins    *repository.AdminRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{store: memstore.New(), metrics: observability.NewMetrics()}
	h.ds = datastore.New(h.store, h.metrics, zap.NewNop())
	h.users = repository.NewUserRepository(h.ds, 0)
	h.prefs = repository.NewPreferencesRepository(h.ds)
	h.orders = repository.NewOrderRepository(h.ds)
	h.inventory = repository.NewInventoryRepository(h.ds)
	h.stock = repository.NewStockRepository(h.ds)
	h.products = repository.NewProductRepository(h.ds, nil, h.metrics)
	h.reviews = repository.NewReviewRepository(h.ds)
	h.admins = repository.NewAdminRepository(h.ds)
	t.Cleanup(func() { h.store.Close(context.Background()) })
	return h
}

func (h *harness) userService() *service.UserService {
	return service.NewUserService(h.users, h.prefs, service.OptimisticConfig(0), zap.NewNop())
}

func (h *harness) inventoryService(pub *mockPublisher) *service.InventoryService {
	return service.NewInventoryService(h.inventory, h.stock, pub, service.OptimisticConfig(0), h.metrics, zap.NewNop())
}
