// Package repository holds the typed entity repositories built on the
// generic data service.
package repository

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// OrderRepository persists orders.
type OrderRepository struct {
	ds *datastore.Service
}

var _ port.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(ds *datastore.Service) *OrderRepository {
	return &OrderRepository{ds: ds}
}

func newestFirst() *port.Order { return datastore.Desc(domain.FieldCreatedAt) }

// Create stores o with status pending unless one is set.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (string, error) {
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	return datastore.Create(ctx, r.ds, datastore.Orders, o)
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return datastore.Read(ctx, r.ds, datastore.Orders, id)
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return datastore.List(ctx, r.ds, datastore.Orders, datastore.ListOptions{OrderBy: newestFirst()})
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return datastore.List(ctx, r.ds, datastore.Orders, datastore.ListOptions{
		Where:   datastore.Eq("status", status),
		OrderBy: newestFirst(),
	})
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return datastore.List(ctx, r.ds, datastore.Orders, datastore.ListOptions{
		Where:   datastore.Eq("customerId", customerID),
		OrderBy: newestFirst(),
	})
}

func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	return datastore.List(ctx, r.ds, datastore.Orders, datastore.ListOptions{
		OrderBy: newestFirst(),
		Limit:   limit,
	})
}

// ListPaginated pages through orders, newest first. An empty status lists all.
func (r *OrderRepository) ListPaginated(ctx context.Context, page, pageSize int, status domain.OrderStatus) (*domain.Page[domain.Order], error) {
	opts := datastore.ListOptions{OrderBy: newestFirst()}
	if status != "" {
		opts.Where = datastore.Eq("status", status)
	}
	return datastore.ListPaginated(ctx, r.ds, datastore.Orders, page, pageSize, opts)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return datastore.Update(ctx, r.ds, datastore.Orders, id, map[string]any{"status": status})
}

func (r *OrderRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return datastore.Update(ctx, r.ds, datastore.Orders, id, fields)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return datastore.Delete(ctx, r.ds, datastore.Orders, id)
}

// Subscribe streams orders, newest first, optionally filtered by status.
func (r *OrderRepository) Subscribe(ctx context.Context, status domain.OrderStatus, fn func([]domain.Order)) (func(), error) {
	opts := datastore.ListOptions{OrderBy: newestFirst()}
	if status != "" {
		opts.Where = datastore.Eq("status", status)
	}
	unsub, err := datastore.Subscribe(ctx, r.ds, datastore.Orders, opts, fn)
	if err != nil {
		return nil, err
	}
	return unsub, nil
}
