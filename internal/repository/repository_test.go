package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/memstore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/repository"
)

type env struct {
	ds      *datastore.Service
	store   *memstore.Store
	metrics *observability.Metrics
	clock   *time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	e := &env{store: memstore.New(), metrics: observability.NewMetrics(), clock: &now}
	seq := 0
	e.ds = datastore.New(e.store, e.metrics, zap.NewNop(),
		datastore.WithClock(func() time.Time { return *e.clock }),
		datastore.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("doc-%03d", seq)
		}),
	)
	t.Cleanup(func() { e.store.Close(context.Background()) })
	return e
}

func (e *env) tick() { *e.clock = e.clock.Add(time.Minute) }

func TestOrderRepository_CreateDefaultsAndOrdering(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewOrderRepository(e.ds)
	ctx := context.Background()

	var ids []string
	for i, st := range []domain.OrderStatus{"", domain.OrderPaid, domain.OrderPending} {
		id, err := repo.Create(ctx, &domain.Order{
			CustomerID: fmt.Sprintf("cust-%d", i%2),
			Items:      []domain.OrderItem{{ProductID: "p1", Quantity: 1, Price: 3}},
			Total:      3,
			Status:     st,
		})
		require.NoError(t, err)
		ids = append(ids, id)
		e.tick()
	}

	first, err := repo.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, first.Status)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	pending, err := repo.ListByStatus(ctx, domain.OrderPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byCustomer, err := repo.ListByCustomer(ctx, "cust-0")
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	recent, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[2], recent[0].ID)
}

func TestOrderRepository_ListPaginated(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewOrderRepository(e.ds)
	ctx := context.Background()

	empty, err := repo.ListPaginated(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &domain.Order{CustomerID: "c", Total: float64(i)})
		require.NoError(t, err)
		e.tick()
	}

	page2, err := repo.ListPaginated(ctx, 2, 2, domain.OrderPending)
	require.NoError(t, err)
	assert.Equal(t, 5, page2.Total)
	assert.Equal(t, 3, page2.TotalPages)
	assert.True(t, page2.HasMore)
	require.Len(t, page2.Data, 2)
	assert.Equal(t, 2.0, page2.Data[0].Total)
	assert.Equal(t, 1.0, page2.Data[1].Total)
}

func TestOrderRepository_UpdateStatusAndSubscribe(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewOrderRepository(e.ds)
	ctx := context.Background()

	id, err := repo.Create(ctx, &domain.Order{CustomerID: "c"})
	require.NoError(t, err)

	updates := make(chan []domain.Order, 8)
	unsub, err := repo.Subscribe(ctx, domain.OrderReady, func(orders []domain.Order) { updates <- orders })
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, repo.UpdateStatus(ctx, id, domain.OrderReady))
	got := waitFor(t, updates, func(orders []domain.Order) bool { return len(orders) == 1 })
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, 2, got[0].Version)
}

// waitFor drains deliveries until one satisfies ok.
func waitFor[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for delivery")
		}
	}
}

func TestInventoryRepository_DerivedFields(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewInventoryRepository(e.ds)
	ctx := context.Background()

	item := &domain.InventoryItem{
		ProductID:   "p1",
		ProductName: "House Blend",
		StockLevels: []domain.StockLevel{
			{Size: "250g", CurrentStock: 10, ReorderPoint: 3, Cost: 4},
			{Size: "1kg", CurrentStock: 2, ReorderPoint: 2, Cost: 12},
		},
		Status: domain.StockInStock,
	}
	id, err := repo.Create(ctx, item)
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 12, got.TotalStock)
	assert.InDelta(t, 64.0, got.TotalValue, 1e-9)
	assert.Equal(t, domain.StockLow, got.Status)

	byProduct, err := repo.GetByProduct(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, byProduct)
	assert.Equal(t, id, byProduct.ID)

	missing, err := repo.GetByProduct(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.UpdateStockLevel(ctx, id, "250g", 0))
	require.NoError(t, repo.UpdateStockLevel(ctx, id, "1kg", 0))
	out, err := repo.ListOutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].TotalStock)

	var validation *domain.ErrValidation
	assert.ErrorAs(t, repo.UpdateStockLevel(ctx, id, "5kg", 1), &validation)

	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, repo.UpdateStockLevel(ctx, "ghost", "1kg", 1), &notFound)
}

func TestInventoryRepository_LowStockOrderedByName(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewInventoryRepository(e.ds)
	ctx := context.Background()

	for _, it := range []struct {
		name  string
		stock int
	}{{"Colombia", 9}, {"Brazil", 10}, {"Ethiopia", 100}} {
		_, err := repo.Create(ctx, &domain.InventoryItem{
			ProductID:   "p-" + it.name,
			ProductName: it.name,
			StockLevels: []domain.StockLevel{{Size: "1kg", CurrentStock: it.stock, ReorderPoint: 200}},
		})
		require.NoError(t, err)
		e.tick()
	}

	low, err := repo.ListLowStock(ctx)
	require.NoError(t, err)
	var names []string
	for _, it := range low {
		names = append(names, it.ProductName)
	}
	assert.Equal(t, []string{"Brazil", "Colombia", "Ethiopia"}, names)
}

func TestInventoryRepository_CommitAdjustment(t *testing.T) {
	e := newEnv(t)
	inv := repository.NewInventoryRepository(e.ds)
	stock := repository.NewStockRepository(e.ds)
	ctx := context.Background()

	id, err := inv.Create(ctx, &domain.InventoryItem{
		ProductID:   "p1",
		StockLevels: []domain.StockLevel{{Size: "1kg", CurrentStock: 5, ReorderPoint: 2}},
	})
	require.NoError(t, err)

	item, err := inv.Get(ctx, id)
	require.NoError(t, err)
	stale := *item

	item.Level("1kg").CurrentStock = 1
	movement := &domain.StockMovement{ProductID: "p1", InventoryID: id, Size: "1kg", Type: domain.MovementOut, Quantity: 4, PreviousStock: 5, NewStock: 1}
	alert := &domain.StockAlert{ProductID: "p1", InventoryID: id, Size: "1kg", Type: domain.AlertLowStock, Severity: domain.SeverityWarning}
	require.NoError(t, inv.CommitAdjustment(ctx, item, movement, alert))
	assert.Equal(t, domain.StockLow, item.Status)
	assert.Equal(t, 2, item.Version)
	assert.NotEmpty(t, movement.ID)
	assert.NotEmpty(t, alert.ID)

	unread, err := stock.ListUnread(ctx)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	// A second writer holding the old version must lose.
	stale.StockLevels = []domain.StockLevel{{Size: "1kg", CurrentStock: 9}}
	err = inv.CommitAdjustment(ctx, &stale, &domain.StockMovement{ProductID: "p1", InventoryID: id}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrConflict))

	movements, err := stock.ListMovementsByInventory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, movements, 1, "conflicting batch must not record a movement")
}

func TestStockRepository_Alerts(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewStockRepository(e.ds)
	ctx := context.Background()

	var ids []string
	for _, p := range []string{"p1", "p1", "p2"} {
		id, err := repo.CreateAlert(ctx, &domain.StockAlert{ProductID: p, Type: domain.AlertLowStock})
		require.NoError(t, err)
		ids = append(ids, id)
		e.tick()
	}

	require.NoError(t, repo.MarkAlertRead(ctx, ids[0]))
	unread, err := repo.ListUnread(ctx)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	byProduct, err := repo.ListAlertsByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	n, err := repo.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.DeleteAlert(ctx, ids[2]))
	all, err := repo.ListAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ids[1], all[0].ID)
}

func TestStockRepository_Movements(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewStockRepository(e.ds)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.RecordMovement(ctx, &domain.StockMovement{ProductID: "p1", InventoryID: "inv-1", Type: domain.MovementIn, Quantity: i + 1})
		require.NoError(t, err)
		e.tick()
	}

	byProduct, err := repo.ListMovementsByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byProduct, 3)

	recent, err := repo.ListRecentMovements(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].Quantity)
}

func TestUserRepository_FilterAndEmail(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewUserRepository(e.ds, 0)
	ctx := context.Background()

	users := []domain.User{
		{Email: " Ana@Example.com ", DisplayName: "Ana", Status: domain.UserActive, AccountType: domain.AccountPremium, MembershipTier: domain.TierGold},
		{Email: "bo@example.com", DisplayName: "Bo", Status: domain.UserActive, AccountType: domain.AccountRegular, MembershipTier: domain.TierBronze},
		{Email: "cy@example.com", DisplayName: "Cyra", Status: domain.UserSuspended, AccountType: domain.AccountPremium, MembershipTier: domain.TierGold},
	}
	for i := range users {
		_, err := repo.Create(ctx, &users[i])
		require.NoError(t, err)
		e.tick()
	}
	assert.Equal(t, "ana@example.com", users[0].Email)

	byEmail, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, users[0].ID, byEmail.ID)

	got, err := repo.List(ctx, domain.UserFilter{Status: domain.UserActive, AccountType: domain.AccountPremium})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, users[0].ID, got[0].ID)

	got, err = repo.List(ctx, domain.UserFilter{MembershipTier: domain.TierGold, Search: "CYR"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, users[2].ID, got[0].ID)

	n, err := repo.Count(ctx, domain.UserActive)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserRepository_ScanLimit(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewUserRepository(e.ds, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := repo.Create(ctx, &domain.User{Email: fmt.Sprintf("u%d@example.com", i), Status: domain.UserActive})
		require.NoError(t, err)
		e.tick()
	}
	got, err := repo.List(ctx, domain.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUserRepository_UpdateVersioned(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewUserRepository(e.ds, 0)
	ctx := context.Background()

	u := &domain.User{Email: "v@example.com"}
	id, err := repo.Create(ctx, u)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateVersioned(ctx, id, 1, map[string]any{"loyaltyPoints": 100}))
	err = repo.UpdateVersioned(ctx, id, 1, map[string]any{"loyaltyPoints": 200})
	assert.True(t, errors.Is(err, port.ErrConflict))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 100, got.LoyaltyPoints)
}

func TestProductRepository_CacheInvalidation(t *testing.T) {
	e := newEnv(t)
	c := cache.New[[]domain.Product](time.Minute)
	t.Cleanup(c.Close)
	repo := repository.NewProductRepository(e.ds, c, e.metrics)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.Product{Name: "Mocha", Category: domain.CategoryCoffee, Available: true})
	require.NoError(t, err)

	first, err := repo.List(ctx, domain.CategoryCoffee)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Cached listing is served even though the store changed underneath.
	require.NoError(t, e.store.Delete(ctx, datastore.Products.Name(), first[0].ID))
	cached, err := repo.List(ctx, domain.CategoryCoffee)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = repo.Create(ctx, &domain.Product{Name: "Americano", Category: domain.CategoryCoffee})
	require.NoError(t, err)
	fresh, err := repo.List(ctx, domain.CategoryCoffee)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Americano", fresh[0].Name)

	assert.Greater(t, e.metrics.DatastoreSnapshot().CacheHitRate, 0.0)
}

func TestProductRepository_CreateManyAndLegacy(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewProductRepository(e.ds, nil, e.metrics)
	ctx := context.Background()

	require.NoError(t, e.store.Insert(ctx, "coffees", "c1", port.Document{
		"id": "c1", "name": "Espresso", "createdAt": map[string]any{"_seconds": 1700000000.0, "_nanoseconds": 0.0},
	}))
	require.NoError(t, e.store.Insert(ctx, "beans", "b1", port.Document{
		"id": "b1", "name": "Yirgacheffe", "available": false, "createdAt": 1700000000000.0,
	}))

	legacy, err := repo.ListLegacy(ctx, "")
	require.NoError(t, err)
	require.Len(t, legacy, 2)
	assert.Equal(t, int64(1700000000), legacy[1].CreatedAt.Unix())

	_, err = repo.ListLegacy(ctx, "tea")
	assert.Error(t, err)

	products := []*domain.Product{
		{Name: "Espresso", Category: domain.CategoryCoffee},
		{Name: "Yirgacheffe", Category: domain.CategoryBean},
	}
	ids, err := repo.CreateMany(ctx, products)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPreferencesRepository_Upsert(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewPreferencesRepository(e.ds)
	ctx := context.Background()

	p, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, repo.AddFavorite(ctx, "user-1", "p1"))
	require.NoError(t, repo.AddFavorite(ctx, "user-1", "p2"))
	require.NoError(t, repo.AddFavorite(ctx, "user-1", "p1"))

	p, err = repo.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, []string{"p1", "p2"}, p.Favorites)

	require.NoError(t, repo.RemoveFavorite(ctx, "user-1", "p1"))
	p, err = repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, p.Favorites)
}

func TestReviewRepository(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewReviewRepository(e.ds)
	ctx := context.Background()

	id, err := repo.CreateReview(ctx, &domain.Review{ProductID: "p1", UserID: "u1", Rating: 5})
	require.NoError(t, err)
	_, err = repo.CreateComment(ctx, &domain.Comment{ProductID: "p1", UserID: "u1", Text: "lovely"})
	require.NoError(t, err)

	reviews, err := repo.ListReviewsByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	comments, err := repo.ListComments(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	require.NoError(t, repo.DeleteReview(ctx, id))
	reviews, err = repo.ListReviewsByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestAdminRepository_CreateWithProfile(t *testing.T) {
	e := newEnv(t)
	repo := repository.NewAdminRepository(e.ds)
	users := repository.NewUserRepository(e.ds, 0)
	ctx := context.Background()

	admin := &domain.Admin{Email: "Owner@Shop.test", Role: domain.RoleOwner}
	profile := &domain.User{DisplayName: "Owner", Status: domain.UserActive}
	require.NoError(t, repo.CreateWithProfile(ctx, admin, profile))
	assert.NotEmpty(t, admin.ID)

	got, err := repo.GetByEmail(ctx, "owner@shop.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, admin.ID, got.ID)

	u, err := users.Get(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "owner@shop.test", u.Email)

	require.NoError(t, repo.RecordLogin(ctx, admin.ID))
	got, err = repo.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, *e.clock, got.LastLoginAt.Time)

	// The profile id is taken, so the admin must not be written either.
	require.NoError(t, e.store.Insert(ctx, datastore.Users.Name(), "taken", port.Document{"id": "taken"}))
	clash := &domain.Admin{Meta: domain.Meta{ID: "taken"}, Email: "second@shop.test"}
	err = repo.CreateWithProfile(ctx, clash, &domain.User{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrDuplicate))

	none, err := repo.Get(ctx, "taken")
	require.NoError(t, err)
	assert.Nil(t, none)
}
