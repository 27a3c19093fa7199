package repository

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// StockRepository persists stock alerts and movements.
type StockRepository struct {
	ds *datastore.Service
}

var _ port.StockRepository = (*StockRepository)(nil)

func NewStockRepository(ds *datastore.Service) *StockRepository {
	return &StockRepository{ds: ds}
}

// ============================================================
// Alerts
// ============================================================

func (r *StockRepository) CreateAlert(ctx context.Context, a *domain.StockAlert) (string, error) {
	return datastore.Create(ctx, r.ds, datastore.StockAlerts, a)
}

func (r *StockRepository) ListAlerts(ctx context.Context, limit int) ([]domain.StockAlert, error) {
	return datastore.List(ctx, r.ds, datastore.StockAlerts, datastore.ListOptions{
		OrderBy: newestFirst(),
		Limit:   limit,
	})
}

func (r *StockRepository) ListUnread(ctx context.Context) ([]domain.StockAlert, error) {
	return datastore.List(ctx, r.ds, datastore.StockAlerts, datastore.ListOptions{
		Where:   datastore.Eq("read", false),
		OrderBy: newestFirst(),
	})
}

func (r *StockRepository) ListAlertsByProduct(ctx context.Context, productID string) ([]domain.StockAlert, error) {
	return datastore.List(ctx, r.ds, datastore.StockAlerts, datastore.ListOptions{
		Where:   datastore.Eq("productId", productID),
		OrderBy: newestFirst(),
	})
}

func (r *StockRepository) MarkAlertRead(ctx context.Context, id string) error {
	return datastore.Update(ctx, r.ds, datastore.StockAlerts, id, map[string]any{"read": true})
}

// MarkAllRead flags every unread alert in one batch and returns how many.
func (r *StockRepository) MarkAllRead(ctx context.Context) (int, error) {
	unread, err := r.ListUnread(ctx)
	if err != nil {
		return 0, err
	}
	if len(unread) == 0 {
		return 0, nil
	}
	ops := make([]datastore.Operation, 0, len(unread))
	for _, a := range unread {
		ops = append(ops, datastore.UpdateOp(datastore.StockAlerts, a.ID, map[string]any{"read": true}))
	}
	if _, err := r.ds.BatchWrite(ctx, ops...); err != nil {
		return 0, err
	}
	return len(unread), nil
}

func (r *StockRepository) DeleteAlert(ctx context.Context, id string) error {
	return datastore.Delete(ctx, r.ds, datastore.StockAlerts, id)
}

// ============================================================
// Movements
// ============================================================

func (r *StockRepository) RecordMovement(ctx context.Context, m *domain.StockMovement) (string, error) {
	return datastore.Create(ctx, r.ds, datastore.StockMovements, m)
}

func (r *StockRepository) ListMovementsByProduct(ctx context.Context, productID string) ([]domain.StockMovement, error) {
	return datastore.List(ctx, r.ds, datastore.StockMovements, datastore.ListOptions{
		Where:   datastore.Eq("productId", productID),
		OrderBy: newestFirst(),
	})
}

func (r *StockRepository) ListMovementsByInventory(ctx context.Context, inventoryID string) ([]domain.StockMovement, error) {
	return datastore.List(ctx, r.ds, datastore.StockMovements, datastore.ListOptions{
		Where:   datastore.Eq("inventoryId", inventoryID),
		OrderBy: newestFirst(),
	})
}

func (r *StockRepository) ListRecentMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	return datastore.List(ctx, r.ds, datastore.StockMovements, datastore.ListOptions{
		OrderBy: newestFirst(),
		Limit:   limit,
	})
}
