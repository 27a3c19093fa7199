// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
	Delete(ctx context.Context, key string)
}

// AlertPublisher fans stock alerts out to other consumers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.StockAlert) error
}

// ============================================================
// Repositories
// ============================================================

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (string, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
	ListPaginated(ctx context.Context, page, pageSize int, status domain.OrderStatus) (*domain.Page[domain.Order], error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, status domain.OrderStatus, fn func([]domain.Order)) (func(), error)
}

// InventoryRepository persists inventory items. Every write recomputes the
// derived status and totals.
type InventoryRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) (string, error)
	Get(ctx context.Context, id string) (*domain.InventoryItem, error)
	GetByProduct(ctx context.Context, productID string) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]domain.InventoryItem, error)
	ListOutOfStock(ctx context.Context) ([]domain.InventoryItem, error)
	UpdateLevels(ctx context.Context, id string, levels []domain.StockLevel) error
	UpdateStockLevel(ctx context.Context, id, size string, newStock int) error
	// CommitAdjustment writes the item, the movement and the optional alert
	// in one atomic batch, conditioned on the item's version.
	CommitAdjustment(ctx context.Context, item *domain.InventoryItem, movement *domain.StockMovement, alert *domain.StockAlert) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, fn func([]domain.InventoryItem)) (func(), error)
}

// StockRepository persists stock alerts and movements.
type StockRepository interface {
	CreateAlert(ctx context.Context, a *domain.StockAlert) (string, error)
	ListAlerts(ctx context.Context, limit int) ([]domain.StockAlert, error)
	ListUnread(ctx context.Context) ([]domain.StockAlert, error)
	ListAlertsByProduct(ctx context.Context, productID string) ([]domain.StockAlert, error)
	MarkAlertRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int, error)
	DeleteAlert(ctx context.Context, id string) error

	RecordMovement(ctx context.Context, m *domain.StockMovement) (string, error)
	ListMovementsByProduct(ctx context.Context, productID string) ([]domain.StockMovement, error)
	ListMovementsByInventory(ctx context.Context, inventoryID string) ([]domain.StockMovement, error)
	ListRecentMovements(ctx context.Context, limit int) ([]domain.StockMovement, error)
}

// UserRepository persists customers.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (string, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, error)
	Count(ctx context.Context, status domain.UserStatus) (int, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	UpdateVersioned(ctx context.Context, id string, version int, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, f domain.UserFilter, fn func([]domain.User)) (func(), error)
}

// ProductRepository persists the catalog.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (string, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	ListLegacy(ctx context.Context, category domain.ProductCategory) ([]domain.LegacyCatalogItem, error)
	// CreateMany stores all products in one atomic batch.
	CreateMany(ctx context.Context, products []*domain.Product) ([]string, error)
}

// PreferencesRepository persists per-user preferences keyed by user id.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserPreferences, error)
	Save(ctx context.Context, userID string, p *domain.UserPreferences) error
	AddFavorite(ctx context.Context, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) error
}

// ReviewRepository persists reviews and comments.
type ReviewRepository interface {
	CreateReview(ctx context.Context, r *domain.Review) (string, error)
	ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	DeleteReview(ctx context.Context, id string) error
	CreateComment(ctx context.Context, c *domain.Comment) (string, error)
	ListComments(ctx context.Context, productID string) ([]domain.Comment, error)
}

// AdminRepository persists back-office accounts.
type AdminRepository interface {
	Create(ctx context.Context, a *domain.Admin) (string, error)
	Get(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	RecordLogin(ctx context.Context, id string) error
	// CreateWithProfile stores the admin and its profile document atomically.
	CreateWithProfile(ctx context.Context, a *domain.Admin, profile *domain.User) error
}

// HealthChecker reports liveness of a dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
