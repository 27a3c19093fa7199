package repository

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// InventoryRepository persists inventory items. Status and totals are
// recomputed from the stock levels on every write.
type InventoryRepository struct {
	ds *datastore.Service
}

var _ port.InventoryRepository = (*InventoryRepository)(nil)

func NewInventoryRepository(ds *datastore.Service) *InventoryRepository {
	return &InventoryRepository{ds: ds}
}

// BuildUpdate returns the fields written for a new set of levels.
func BuildUpdate(levels []domain.StockLevel) map[string]any {
	total, value := domain.StockTotals(levels)
	return map[string]any{
		"stockLevels": levels,
		"totalStock":  total,
		"totalValue":  value,
		"status":      domain.DeriveStockStatus(levels),
	}
}

func (r *InventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) (string, error) {
	item.Recompute()
	return datastore.Create(ctx, r.ds, datastore.Inventory, item)
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return datastore.Read(ctx, r.ds, datastore.Inventory, id)
}

// GetByProduct returns the item tracking productID, or nil.
func (r *InventoryRepository) GetByProduct(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	items, err := datastore.List(ctx, r.ds, datastore.Inventory, datastore.ListOptions{
		Where: datastore.Eq("productId", productID),
		Limit: 1,
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return datastore.List(ctx, r.ds, datastore.Inventory, datastore.ListOptions{
		OrderBy: datastore.Asc("productName"),
	})
}

func (r *InventoryRepository) ListLowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	return r.listByStatus(ctx, domain.StockLow)
}

func (r *InventoryRepository) ListOutOfStock(ctx context.Context) ([]domain.InventoryItem, error) {
	return r.listByStatus(ctx, domain.StockOutOfStock)
}

// listByStatus orders by product name. Ordering on a numeric field would
// compare as text on the Supabase backend.
func (r *InventoryRepository) listByStatus(ctx context.Context, status domain.StockStatus) ([]domain.InventoryItem, error) {
	return datastore.List(ctx, r.ds, datastore.Inventory, datastore.ListOptions{
		Where:   datastore.Eq("status", status),
		OrderBy: datastore.Asc("productName"),
	})
}

func (r *InventoryRepository) UpdateLevels(ctx context.Context, id string, levels []domain.StockLevel) error {
	return datastore.Update(ctx, r.ds, datastore.Inventory, id, BuildUpdate(levels))
}

// UpdateStockLevel sets the current stock of one size. The read and the
// versioned write fail with a conflict if the item changed in between.
func (r *InventoryRepository) UpdateStockLevel(ctx context.Context, id, size string, newStock int) error {
	item, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return &domain.ErrNotFound{Resource: "inventory", ID: id}
	}
	level := item.Level(size)
	if level == nil {
		return &domain.ErrValidation{Field: "size", Message: "unknown size " + size}
	}
	level.CurrentStock = newStock
	return datastore.UpdateVersioned(ctx, r.ds, datastore.Inventory, id, item.Version, BuildUpdate(item.StockLevels))
}

// CommitAdjustment writes the adjusted item, its movement and an optional
// alert in one batch. The item write is conditioned on item.Version.
func (r *InventoryRepository) CommitAdjustment(ctx context.Context, item *domain.InventoryItem, movement *domain.StockMovement, alert *domain.StockAlert) error {
	fields := BuildUpdate(item.StockLevels)
	if !item.LastRestocked.IsZero() {
		fields["lastRestocked"] = item.LastRestocked
	}

	ops := []datastore.Operation{
		datastore.UpdateVersionedOp(datastore.Inventory, item.ID, item.Version, fields),
		datastore.CreateOp(datastore.StockMovements, movement),
	}
	if alert != nil {
		ops = append(ops, datastore.CreateOp(datastore.StockAlerts, alert))
	}
	if _, err := r.ds.BatchWrite(ctx, ops...); err != nil {
		return err
	}
	item.Recompute()
	item.Version++
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	return datastore.Delete(ctx, r.ds, datastore.Inventory, id)
}

func (r *InventoryRepository) Subscribe(ctx context.Context, fn func([]domain.InventoryItem)) (func(), error) {
	unsub, err := datastore.Subscribe(ctx, r.ds, datastore.Inventory, datastore.ListOptions{
		OrderBy: datastore.Asc("productName"),
	}, fn)
	if err != nil {
		return nil, err
	}
	return unsub, nil
}
