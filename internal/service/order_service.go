package service

import (
	"context"
	"fmt"
	"math"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var orderTracer = otel.Tracer("service/order")

// Page size bounds for order listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OrderRecorder folds an order into the customer's statistics.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, userID string, total float64) error
}

// OrderService manages the order lifecycle.
type OrderService struct {
	orders   port.OrderRepository
	recorder OrderRecorder
	logger   *zap.Logger
}

// NewOrderService creates the order service. recorder may be nil.
func NewOrderService(orders port.OrderRepository, recorder OrderRecorder, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, recorder: recorder, logger: logger}
}

// CreateOrder validates the items and computes the total from them.
func (s *OrderService) CreateOrder(ctx context.Context, req *domain.CreateOrderRequest) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.CustomerID == "" {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "Customer id is required"}
	}
	if len(req.Items) == 0 {
		return nil, &domain.ErrValidation{Field: "items", Message: "Order must contain at least one item"}
	}
	for i, it := range req.Items {
		if it.ProductID == "" {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("items[%d].productId", i), Message: "Product id is required"}
		}
		if it.Quantity <= 0 {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("items[%d].quantity", i), Message: "Quantity must be positive"}
		}
		if it.Price < 0 {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("items[%d].price", i), Message: "Price cannot be negative"}
		}
	}

	o := &domain.Order{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		Items:         req.Items,
		Total:         math.Round(domain.OrderTotal(req.Items)*100) / 100,
		Status:        domain.OrderPending,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if _, err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	if s.recorder != nil {
		if err := s.recorder.RecordOrder(ctx, o.CustomerID, o.Total); err != nil {
			s.logger.Warn("update customer stats failed",
				zap.String("order_id", o.ID),
				zap.String("customer_id", o.CustomerID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.Float64("total", o.Total),
	)
	return o, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &domain.ErrNotFound{Resource: "order", ID: id}
	}
	return o, nil
}

// ListOrders pages through orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, page, pageSize int, status domain.OrderStatus) (*domain.Page[domain.Order], error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(status)}
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return s.orders.ListPaginated(ctx, page, pageSize, status)
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.ListByCustomer")
	defer span.End()

	return s.orders.ListByCustomer(ctx, customerID)
}

// UpdateStatus moves an order to status. Terminal orders are frozen.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id), attribute.String("order.status", string(status)))

	if !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(status)}
	}
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if o.Status.Terminal() {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("Order is %s and cannot change status", o.Status)}
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(status)),
	)
	return s.GetOrder(ctx, id)
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := orderTracer.Start(ctx, "OrderService.DeleteOrder")
	defer span.End()

	if _, err := s.GetOrder(ctx, id); err != nil {
		return err
	}
	return s.orders.Delete(ctx, id)
}

// Subscribe streams the order list, optionally filtered by status.
func (s *OrderService) Subscribe(ctx context.Context, status domain.OrderStatus, fn func([]domain.Order)) (func(), error) {
	if status != "" && !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(status)}
	}
	return s.orders.Subscribe(ctx, status, fn)
}
