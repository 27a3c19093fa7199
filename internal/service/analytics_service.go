package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analyticsTracer = otel.Tracer("service/analytics")

const (
	dashboardRecentOrders = 10
	topProductsLimit      = 5
)

// AnalyticsService aggregates sales and dashboard figures from stored data.
type AnalyticsService struct {
	users     port.UserRepository
	products  port.ProductRepository
	orders    port.OrderRepository
	inventory port.InventoryRepository
	stock     port.StockRepository
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewAnalyticsService(
	users port.UserRepository,
	products port.ProductRepository,
	orders port.OrderRepository,
	inventory port.InventoryRepository,
	stock port.StockRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		users:     users,
		products:  products,
		orders:    orders,
		inventory: inventory,
		stock:     stock,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// ============================================================
// Sales: GET /v1/analytics/sales
// ============================================================

// SalesSummary aggregates the orders created in [from, to). Cancelled and
// failed orders appear in the status breakdown only.
func (s *AnalyticsService) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.SalesSummary")
	defer span.End()

	if !from.Before(to) {
		return nil, &domain.ErrValidation{Field: "from", Message: "from must be before to"}
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return summarize(orders, from.UTC(), to.UTC()), nil
}

func summarize(orders []domain.Order, from, to time.Time) *domain.SalesSummary {
	summary := &domain.SalesSummary{
		From:            domain.FormatTime(from),
		To:              domain.FormatTime(to),
		StatusBreakdown: map[domain.OrderStatus]int{},
		Daily:           []domain.DailySales{},
		TopProducts:     []domain.ProductSales{},
	}

	daily := map[string]*domain.DailySales{}
	products := map[string]*domain.ProductSales{}
	for _, o := range orders {
		created := o.CreatedAt.Time
		if created.Before(from) || !created.Before(to) {
			continue
		}
		summary.StatusBreakdown[o.Status]++
		if !o.Status.Revenue() {
			continue
		}

		summary.OrderCount++
		summary.Revenue += o.Total

		day := created.Format(time.DateOnly)
		d, ok := daily[day]
		if !ok {
			d = &domain.DailySales{Date: day}
			daily[day] = d
		}
		d.Revenue += o.Total
		d.Orders++

		for _, it := range o.Items {
			p, ok := products[it.ProductID]
			if !ok {
				p = &domain.ProductSales{ProductID: it.ProductID, ProductName: it.ProductName}
				products[it.ProductID] = p
			}
			p.Quantity += it.Quantity
			p.Revenue += it.Subtotal()
		}
	}

	summary.Revenue = round2(summary.Revenue)
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = round2(summary.Revenue / float64(summary.OrderCount))
	}
	for _, d := range daily {
		d.Revenue = round2(d.Revenue)
		summary.Daily = append(summary.Daily, *d)
	}
	sort.Slice(summary.Daily, func(i, j int) bool { return summary.Daily[i].Date < summary.Daily[j].Date })

	for _, p := range products {
		p.Revenue = round2(p.Revenue)
		summary.TopProducts = append(summary.TopProducts, *p)
	}
	sort.Slice(summary.TopProducts, func(i, j int) bool {
		a, b := summary.TopProducts[i], summary.TopProducts[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.ProductID < b.ProductID
	})
	if len(summary.TopProducts) > topProductsLimit {
		summary.TopProducts = summary.TopProducts[:topProductsLimit]
	}
	return summary
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// ============================================================
// Dashboard: GET /v1/analytics/dashboard
// ============================================================

// Dashboard gathers the landing page figures concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Dashboard")
	defer span.End()

	now := s.now().UTC()
	d := &domain.Dashboard{GeneratedAt: domain.NewTimestamp(now)}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.Count(gCtx, "")
		d.TotalUsers = n
		return wrap("count users", err)
	})
	g.Go(func() error {
		n, err := s.users.Count(gCtx, domain.UserActive)
		d.ActiveUsers = n
		return wrap("count active users", err)
	})
	g.Go(func() error {
		n, err := s.products.Count(gCtx)
		d.TotalProducts = n
		return wrap("count products", err)
	})
	g.Go(func() error {
		orders, err := s.orders.ListRecent(gCtx, dashboardRecentOrders)
		d.RecentOrders = orders
		return wrap("recent orders", err)
	})
	g.Go(func() error {
		pending, err := s.orders.ListByStatus(gCtx, domain.OrderPending)
		d.PendingOrders = len(pending)
		return wrap("pending orders", err)
	})
	g.Go(func() error {
		out, err := s.inventory.ListOutOfStock(gCtx)
		if err != nil {
			return wrap("out of stock", err)
		}
		low, err := s.inventory.ListLowStock(gCtx)
		d.LowStock = append(out, low...)
		return wrap("low stock", err)
	})
	g.Go(func() error {
		unread, err := s.stock.ListUnread(gCtx)
		d.UnreadAlerts = len(unread)
		return wrap("unread alerts", err)
	})
	g.Go(func() error {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		orders, err := s.orders.List(gCtx)
		if err != nil {
			return wrap("today revenue", err)
		}
		d.TodayRevenue = summarize(orders, start, start.Add(24*time.Hour)).Revenue
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard aggregation failed", zap.Error(err))
		return nil, err
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []domain.Order{}
	}
	if d.LowStock == nil {
		d.LowStock = []domain.InventoryItem{}
	}
	return d, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

// DatastoreStats reports data layer activity from the metrics registry.
func (s *AnalyticsService) DatastoreStats(ctx context.Context) *domain.DatastoreStats {
	_, span := analyticsTracer.Start(ctx, "AnalyticsService.DatastoreStats")
	defer span.End()

	return s.metrics.DatastoreSnapshot()
}
