package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var inventoryTracer = otel.Tracer("service/inventory")

const (
	// DefaultForecastWindow is the outflow history used by Forecast.
	DefaultForecastWindow = 30
	// reorderCoverDays is how many days of usage a suggested reorder covers.
	reorderCoverDays = 14
	// maxRecentMovements caps ListRecentMovements.
	maxRecentMovements = 200
)

// InventoryService manages stock levels, movements and alerts.
type InventoryService struct {
	inventory port.InventoryRepository
	stock     port.StockRepository
	publisher port.AlertPublisher
	retry     resilience.Config
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewInventoryService creates the inventory service. publisher may be nil.
func NewInventoryService(
	inventory port.InventoryRepository,
	stock port.StockRepository,
	publisher port.AlertPublisher,
	retry resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		stock:     stock,
		publisher: publisher,
		retry:     retry,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func validateLevels(levels []domain.StockLevel) error {
	if len(levels) == 0 {
		return &domain.ErrValidation{Field: "stockLevels", Message: "At least one stock level is required"}
	}
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		if l.Size == "" {
			return &domain.ErrValidation{Field: "stockLevels.size", Message: "Size is required"}
		}
		if seen[l.Size] {
			return &domain.ErrValidation{Field: "stockLevels.size", Message: "Duplicate size " + l.Size}
		}
		seen[l.Size] = true
		if l.CurrentStock < 0 || l.MinStock < 0 || l.MaxStock < 0 || l.ReorderPoint < 0 {
			return &domain.ErrValidation{Field: "stockLevels", Message: "Stock quantities cannot be negative"}
		}
		if l.Cost < 0 {
			return &domain.ErrValidation{Field: "stockLevels.cost", Message: "Cost cannot be negative"}
		}
	}
	return nil
}

// ============================================================
// Items: /v1/inventory
// ============================================================

// CreateItem starts tracking a product. A product has at most one item.
func (s *InventoryService) CreateItem(ctx context.Context, req *domain.CreateInventoryRequest) (*domain.InventoryItem, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.CreateItem")
	defer span.End()

	if req.ProductID == "" {
		return nil, &domain.ErrValidation{Field: "productId", Message: "Product id is required"}
	}
	if err := validateLevels(req.StockLevels); err != nil {
		return nil, err
	}
	existing, err := s.inventory.GetByProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("check existing inventory: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "Inventory already exists for product " + req.ProductID}
	}

	item := &domain.InventoryItem{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		StockLevels: req.StockLevels,
	}
	if _, err := s.inventory.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create inventory: %w", err)
	}
	return item, nil
}

func (s *InventoryService) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.GetItem")
	defer span.End()

	item, err := s.inventory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &domain.ErrNotFound{Resource: "inventory", ID: id}
	}
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.ListItems")
	defer span.End()

	return s.inventory.List(ctx)
}

// ListLowStock returns out-of-stock items first, then low-stock ones.
func (s *InventoryService) ListLowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.ListLowStock")
	defer span.End()

	out, err := s.inventory.ListOutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.inventory.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, low...), nil
}

func (s *InventoryService) UpdateLevels(ctx context.Context, id string, levels []domain.StockLevel) (*domain.InventoryItem, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.UpdateLevels")
	defer span.End()

	if err := validateLevels(levels); err != nil {
		return nil, err
	}
	if _, err := s.GetItem(ctx, id); err != nil {
		return nil, err
	}
	if err := s.inventory.UpdateLevels(ctx, id, levels); err != nil {
		return nil, fmt.Errorf("update levels: %w", err)
	}
	return s.GetItem(ctx, id)
}

// SetStockLevel overwrites the current stock of one size without recording
// a movement. It fails with a conflict if the item changes mid-write.
func (s *InventoryService) SetStockLevel(ctx context.Context, id, size string, stock int) (*domain.InventoryItem, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.SetStockLevel")
	defer span.End()
	span.SetAttributes(attribute.String("inventory.id", id), attribute.String("stock.size", size))

	if stock < 0 {
		return nil, &domain.ErrValidation{Field: "currentStock", Message: "Stock cannot be negative"}
	}
	if err := s.inventory.UpdateStockLevel(ctx, id, size, stock); err != nil {
		return nil, err
	}
	s.logger.Info("stock level set",
		zap.String("inventory_id", id),
		zap.String("size", size),
		zap.Int("stock", stock),
	)
	return s.GetItem(ctx, id)
}

func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.DeleteItem")
	defer span.End()

	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}
	return s.inventory.Delete(ctx, id)
}

// ============================================================
// Movements: POST /v1/inventory/{id}/adjust
// ============================================================

// AdjustStock applies one movement to a stock level. The new level, the
// movement record and any alert it triggers are committed together; a
// concurrent adjustment causes a re-read and another attempt.
func (s *InventoryService) AdjustStock(ctx context.Context, id string, req *domain.AdjustStockRequest, actor domain.Actor) (*domain.AdjustStockResult, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.AdjustStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("inventory.id", id),
		attribute.String("movement.type", string(req.Type)),
		attribute.Int("movement.quantity", req.Quantity),
	)

	if !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "unknown movement type " + string(req.Type)}
	}
	if req.Quantity == 0 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "Quantity must not be zero"}
	}
	if req.Size == "" {
		return nil, &domain.ErrValidation{Field: "size", Message: "Size is required"}
	}
	delta := req.Type.SignedQuantity(req.Quantity)

	var result *domain.AdjustStockResult
	err := withOptimisticRetry(ctx, s.retry, "inventory", func() error {
		item, err := s.GetItem(ctx, id)
		if err != nil {
			return err
		}
		level := item.Level(req.Size)
		if level == nil {
			return &domain.ErrValidation{Field: "size", Message: "Unknown size " + req.Size}
		}

		previous := level.CurrentStock
		next := previous + delta
		if next < 0 {
			return &domain.ErrValidation{
				Field:   "quantity",
				Message: fmt.Sprintf("Insufficient stock for size %s: have %d, need %d", req.Size, previous, -delta),
			}
		}
		level.CurrentStock = next
		if delta > 0 && req.Type == domain.MovementIn {
			item.LastRestocked = domain.NewTimestamp(s.now())
		}

		movement := &domain.StockMovement{
			ProductID:     item.ProductID,
			InventoryID:   item.ID,
			Size:          req.Size,
			Type:          req.Type,
			Quantity:      delta,
			PreviousStock: previous,
			NewStock:      next,
			Reason:        req.Reason,
			UserID:        actor.UserID,
			UserEmail:     actor.UserEmail,
		}
		alert := alertFor(item, *level, previous)

		if err := s.inventory.CommitAdjustment(ctx, item, movement, alert); err != nil {
			return err
		}
		result = &domain.AdjustStockResult{Item: item, Movement: movement, Alert: alert}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("inventory_id", id),
		zap.String("size", req.Size),
		zap.Int("previous", result.Movement.PreviousStock),
		zap.Int("new", result.Movement.NewStock),
	)
	if result.Alert != nil {
		s.raise(ctx, result.Alert)
	}
	return result, nil
}

// Restock adds quantity units of size.
func (s *InventoryService) Restock(ctx context.Context, id, size string, quantity int, actor domain.Actor) (*domain.AdjustStockResult, error) {
	if quantity <= 0 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "Restock quantity must be positive"}
	}
	return s.AdjustStock(ctx, id, &domain.AdjustStockRequest{
		Size:     size,
		Type:     domain.MovementIn,
		Quantity: quantity,
		Reason:   "restock",
	}, actor)
}

// alertFor returns the alert raised when level enters a threshold band it
// was not in before, or nil.
func alertFor(item *domain.InventoryItem, level domain.StockLevel, previous int) *domain.StockAlert {
	band := func(stock int) domain.AlertType {
		switch {
		case stock <= 0:
			return domain.AlertOutOfStock
		case stock <= level.ReorderPoint:
			return domain.AlertLowStock
		case level.MaxStock > 0 && stock > level.MaxStock:
			return domain.AlertOverstock
		}
		return ""
	}
	now := band(level.CurrentStock)
	if now == "" || now == band(previous) {
		return nil
	}

	alert := &domain.StockAlert{
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		InventoryID:  item.ID,
		Size:         level.Size,
		Type:         now,
		CurrentStock: level.CurrentStock,
	}
	switch now {
	case domain.AlertOutOfStock:
		alert.Severity = domain.SeverityCritical
		alert.Message = fmt.Sprintf("%s (%s) is out of stock", item.ProductName, level.Size)
	case domain.AlertLowStock:
		alert.Severity = domain.SeverityWarning
		alert.Threshold = level.ReorderPoint
		alert.Message = fmt.Sprintf("%s (%s) is low: %d left, reorder point %d",
			item.ProductName, level.Size, level.CurrentStock, level.ReorderPoint)
	case domain.AlertOverstock:
		alert.Severity = domain.SeverityInfo
		alert.Threshold = level.MaxStock
		alert.Message = fmt.Sprintf("%s (%s) is over capacity: %d of %d",
			item.ProductName, level.Size, level.CurrentStock, level.MaxStock)
	}
	return alert
}

// raise counts a committed alert and hands it to the publisher. Publishing
// is best-effort; the alert is already stored.
func (s *InventoryService) raise(ctx context.Context, alert *domain.StockAlert) {
	s.metrics.IncrAlert(string(alert.Type))
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAlert(ctx, alert); err != nil {
		s.logger.Warn("publish stock alert failed",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
	}
}

func (s *InventoryService) ListMovements(ctx context.Context, id string) ([]domain.StockMovement, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.ListMovements")
	defer span.End()

	if _, err := s.GetItem(ctx, id); err != nil {
		return nil, err
	}
	return s.stock.ListMovementsByInventory(ctx, id)
}

// ListRecentMovements returns the newest movements across all items.
func (s *InventoryService) ListRecentMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.ListRecentMovements")
	defer span.End()

	if limit < 1 || limit > maxRecentMovements {
		return nil, &domain.ErrValidation{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", maxRecentMovements)}
	}
	return s.stock.ListRecentMovements(ctx, limit)
}

// ============================================================
// Alerts: /v1/alerts
// ============================================================

func (s *InventoryService) ListAlertsByProduct(ctx context.Context, productID string) ([]domain.StockAlert, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.ListAlertsByProduct")
	defer span.End()

	return s.stock.ListAlertsByProduct(ctx, productID)
}

// DeleteAlert removes an alert. Deleting an unknown id succeeds.
func (s *InventoryService) DeleteAlert(ctx context.Context, id string) error {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.DeleteAlert")
	defer span.End()

	return s.stock.DeleteAlert(ctx, id)
}

// ListAlerts returns the newest alerts, or only unread ones.
func (s *InventoryService) ListAlerts(ctx context.Context, unreadOnly bool, limit int) ([]domain.StockAlert, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.ListAlerts")
	defer span.End()

	if unreadOnly {
		return s.stock.ListUnread(ctx)
	}
	return s.stock.ListAlerts(ctx, limit)
}

func (s *InventoryService) MarkAlertRead(ctx context.Context, id string) error {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.MarkAlertRead")
	defer span.End()

	return s.stock.MarkAlertRead(ctx, id)
}

func (s *InventoryService) MarkAllAlertsRead(ctx context.Context) (int, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.MarkAllAlertsRead")
	defer span.End()

	return s.stock.MarkAllRead(ctx)
}

// ============================================================
// Forecast: GET /v1/inventory/{id}/forecast
// ============================================================

// Forecast projects depletion per size from the outflow recorded in the
// last windowDays days.
func (s *InventoryService) Forecast(ctx context.Context, id string, windowDays int) (*domain.StockForecast, error) {
	ctx, span := inventoryTracer.Start(ctx, "InventoryService.Forecast")
	defer span.End()

	if windowDays <= 0 {
		windowDays = DefaultForecastWindow
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	movements, err := s.stock.ListMovementsByInventory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	since := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	outflow := map[string]int{}
	for _, m := range movements {
		if m.CreatedAt.Before(since) || m.Quantity >= 0 {
			continue
		}
		outflow[m.Size] += -m.Quantity
	}

	forecast := &domain.StockForecast{
		InventoryID: item.ID,
		ProductID:   item.ProductID,
		WindowDays:  windowDays,
		Sizes:       make([]domain.SizeForecast, 0, len(item.StockLevels)),
	}
	for _, l := range item.StockLevels {
		forecast.Sizes = append(forecast.Sizes, forecastLevel(l, outflow[l.Size], windowDays))
	}
	return forecast, nil
}

func forecastLevel(l domain.StockLevel, outflow, windowDays int) domain.SizeForecast {
	f := domain.SizeForecast{Size: l.Size, CurrentStock: l.CurrentStock, DaysUntilStockout: -1}
	if outflow == 0 {
		return f
	}
	daily := float64(outflow) / float64(windowDays)
	f.AverageDailyUsage = math.Round(daily*100) / 100
	f.DaysUntilStockout = math.Round(float64(l.CurrentStock)/daily*10) / 10

	target := int(math.Ceil(daily * reorderCoverDays))
	if l.MaxStock > 0 && target > l.MaxStock {
		target = l.MaxStock
	}
	if target > l.CurrentStock {
		f.SuggestedReorder = target - l.CurrentStock
	}
	return f
}
