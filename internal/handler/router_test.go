package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/handler"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/memstore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/repository"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

const (
	adminEmail    = "owner@coffee.test"
	adminPassword = "s3cret-beans"
)

type failingChecker struct{}

func (failingChecker) Ping(context.Context) error { return errors.New("connection refused") }

// newTestRouter wires the full stack over an in-memory store and returns
// the router plus a valid bearer token.
func newTestRouter(t *testing.T, checks map[string]port.HealthChecker) (http.Handler, string) {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New()
	t.Cleanup(func() { store.Close(context.Background()) })

	metrics := observability.NewMetrics()
	ds := datastore.New(store, metrics, logger)

	users := repository.NewUserRepository(ds, 0)
	prefs := repository.NewPreferencesRepository(ds)
	orders := repository.NewOrderRepository(ds)
	inventory := repository.NewInventoryRepository(ds)
	stock := repository.NewStockRepository(ds)
	products := repository.NewProductRepository(ds, nil, metrics)
	reviews := repository.NewReviewRepository(ds)
	admins := repository.NewAdminRepository(ds)

	retry := service.OptimisticConfig(0)
	userSvc := service.NewUserService(users, prefs, retry, logger)
	authSvc := service.NewAuthService(admins, "test-secret", time.Hour, logger)

	if _, err := authSvc.BootstrapAdmin(context.Background(), &domain.BootstrapAdminRequest{
		Email: adminEmail, DisplayName: "Owner", Password: adminPassword,
	}); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	if checks == nil {
		checks = map[string]port.HealthChecker{"datastore": store}
	}

	router := handler.NewRouter(handler.Deps{
		Auth:         authSvc,
		Users:        userSvc,
		Inventory:    service.NewInventoryService(inventory, stock, nil, retry, metrics, logger),
		Orders:       service.NewOrderService(orders, userSvc, logger),
		Products:     service.NewProductService(products, reviews, logger),
		Analytics:    service.NewAnalyticsService(users, products, orders, inventory, stock, metrics, logger),
		HealthChecks: checks,
		Metrics:      metrics,
	}, logger)

	rec := do(t, router, http.MethodPost, "/v1/auth/login", "",
		domain.LoginRequest{Email: adminEmail, Password: adminPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login domain.LoginResponse
	decode(t, rec, &login)
	return router, login.AccessToken
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(handler.Deps{Metrics: observability.NewMetrics()}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealthz_UnhealthyDependency(t *testing.T) {
	router := handler.NewRouter(handler.Deps{
		HealthChecks: map[string]port.HealthChecker{"redis": failingChecker{}},
	}, zap.NewNop())

	rec := do(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var hs domain.HealthStatus
	decode(t, rec, &hs)
	if hs.Status != "unhealthy" || len(hs.Services) != 2 || hs.Services[1].Error == "" {
		t.Errorf("unexpected health payload: %+v", hs)
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(handler.Deps{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router, token := newTestRouter(t, nil)

	do(t, router, http.MethodGet, "/v1/products", token, nil)
	rec := do(t, router, http.MethodGet, "/metrics", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "coffee_http_requests_total") {
		t.Error("expected request counter in /metrics output")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/v1/orders", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/orders", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/auth/login", "",
		domain.LoginRequest{Email: adminEmail, Password: "nope-nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMe(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), adminEmail) {
		t.Errorf("expected admin email in %s", rec.Body.String())
	}
}

func TestProductLifecycle(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/products", token, domain.Product{
		Name:     "Flat White",
		Category: domain.CategoryCoffee,
		Prices:   []domain.Price{{Size: "small", Price: 3.5}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var p domain.Product
	decode(t, rec, &p)

	rec = do(t, router, http.MethodGet, "/v1/products/"+p.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/v1/products/"+p.ID+"/reviews", token,
		domain.CreateReviewRequest{UserID: "u1", Rating: 6})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("review with rating 6: expected 400, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodDelete, "/v1/products/"+p.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/products/"+p.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestProductCreate_InvalidBody(t *testing.T) {
	router, token := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestOrders_CreatePaginateAndStatus(t *testing.T) {
	router, token := newTestRouter(t, nil)

	for i := 0; i < 3; i++ {
		rec := do(t, router, http.MethodPost, "/v1/orders", token, domain.CreateOrderRequest{
			CustomerID: "cust-1",
			Items:      []domain.OrderItem{{ProductID: "p1", ProductName: "Latte", Quantity: 2, Price: 4}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create order: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, router, http.MethodGet, "/v1/orders?page=1&pageSize=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var page domain.Page[domain.Order]
	decode(t, rec, &page)
	if page.Total != 3 || len(page.Data) != 2 || !page.HasMore {
		t.Fatalf("unexpected page: total=%d len=%d hasMore=%v", page.Total, len(page.Data), page.HasMore)
	}
	if page.Data[0].Total != 8 {
		t.Errorf("expected computed total 8, got %v", page.Data[0].Total)
	}

	id := page.Data[0].ID
	rec = do(t, router, http.MethodPut, "/v1/orders/"+id+"/status", token,
		domain.UpdateOrderStatusRequest{Status: domain.OrderCancelled})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPut, "/v1/orders/"+id+"/status", token,
		domain.UpdateOrderStatusRequest{Status: domain.OrderPreparing})
	if rec.Code != http.StatusConflict {
		t.Errorf("reopen cancelled order: expected 409, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPut, "/v1/orders/"+page.Data[1].ID+"/status", token,
		domain.UpdateOrderStatusRequest{Status: "teleported"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status: expected 400, got %d", rec.Code)
	}
}

func TestOrderStream_SendsSnapshot(t *testing.T) {
	router, token := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "/v1/orders", token, domain.CreateOrderRequest{
		CustomerID: "cust-1",
		Items:      []domain.OrderItem{{ProductID: "p1", ProductName: "Mocha", Quantity: 1, Price: 5}},
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/orders/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data: ") {
			var orders []domain.Order
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &orders); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			if len(orders) != 1 || orders[0].Items[0].ProductName != "Mocha" {
				t.Errorf("unexpected snapshot: %+v", orders)
			}
			return
		}
	}
	t.Fatalf("stream ended without a snapshot: %v", sc.Err())
}

func TestServerShutdown_EndsOpenStreams(t *testing.T) {
	router, token := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "/v1/orders", token, domain.CreateOrderRequest{
		CustomerID: "cust-1",
		Items:      []domain.OrderItem{{ProductID: "p1", ProductName: "Mocha", Quantity: 1, Price: 5}},
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := handler.NewServer(ln.Addr().String(), router)
	go srv.Serve(ln)

	req, _ := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/v1/orders/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() && !strings.HasPrefix(sc.Text(), "data: ") {
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	start := time.Now()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown with an open stream: %v after %s", err, time.Since(start))
	}
}

func TestOrders_PageFarPastTheEnd(t *testing.T) {
	router, token := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "/v1/orders", token, domain.CreateOrderRequest{
		CustomerID: "cust-1",
		Items:      []domain.OrderItem{{ProductID: "p1", ProductName: "Latte", Quantity: 1, Price: 4}},
	})

	rec := do(t, router, http.MethodGet, "/v1/orders?page=9223372036854775807&pageSize=4", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page domain.Page[domain.Order]
	decode(t, rec, &page)
	if len(page.Data) != 0 || page.Total != 1 || page.HasMore {
		t.Errorf("expected an empty page, got total=%d len=%d hasMore=%v", page.Total, len(page.Data), page.HasMore)
	}
	if page.Page != 1_000_000 {
		t.Errorf("expected page capped at 1000000, got %d", page.Page)
	}
}

func TestInventory_AdjustRaisesAlert(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/inventory", token, domain.CreateInventoryRequest{
		ProductID:   "p1",
		ProductName: "House Blend",
		StockLevels: []domain.StockLevel{{Size: "1kg", CurrentStock: 10, MinStock: 2, MaxStock: 50, ReorderPoint: 5, Cost: 12}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item domain.InventoryItem
	decode(t, rec, &item)

	rec = do(t, router, http.MethodPost, "/v1/inventory/"+item.ID+"/adjust", token, domain.AdjustStockRequest{
		Size: "1kg", Type: domain.MovementOut, Quantity: 7, Reason: "sold",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res domain.AdjustStockResult
	decode(t, rec, &res)
	if res.Alert == nil || res.Alert.Type != domain.AlertLowStock {
		t.Fatalf("expected low stock alert, got %+v", res.Alert)
	}
	if res.Movement.UserEmail != adminEmail {
		t.Errorf("expected movement stamped with %s, got %q", adminEmail, res.Movement.UserEmail)
	}

	rec = do(t, router, http.MethodPost, "/v1/inventory/"+item.ID+"/adjust", token, domain.AdjustStockRequest{
		Size: "1kg", Type: domain.MovementOut, Quantity: 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversell: expected 400, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/v1/alerts?unread=true", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("expected one unread alert, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/v1/alerts/read-all", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"marked":1`) {
		t.Errorf("read-all: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/v1/inventory/"+item.ID+"/forecast?days=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad forecast window: expected 400, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/inventory/"+item.ID+"/forecast?days=7", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("forecast: expected 200, got %d", rec.Code)
	}
}

func TestInventory_SetLevelRecentMovementsAndAlerts(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/inventory", token, domain.CreateInventoryRequest{
		ProductID:   "p1",
		ProductName: "House Blend",
		StockLevels: []domain.StockLevel{{Size: "1kg", CurrentStock: 10, ReorderPoint: 5, Cost: 12}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item domain.InventoryItem
	decode(t, rec, &item)

	rec = do(t, router, http.MethodPost, "/v1/inventory/"+item.ID+"/adjust", token, domain.AdjustStockRequest{
		Size: "1kg", Type: domain.MovementOut, Quantity: 7,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	zero := 0
	rec = do(t, router, http.MethodPut, "/v1/inventory/"+item.ID+"/levels/1kg", token, domain.SetStockLevelRequest{CurrentStock: &zero})
	if rec.Code != http.StatusOK {
		t.Fatalf("set level: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.InventoryItem
	decode(t, rec, &updated)
	if updated.TotalStock != 0 || updated.Status != domain.StockOutOfStock {
		t.Errorf("expected empty out-of-stock item, got total=%d status=%s", updated.TotalStock, updated.Status)
	}

	negative := -1
	for _, tc := range []struct {
		path string
		body any
		want int
	}{
		{"/v1/inventory/" + item.ID + "/levels/1kg", map[string]any{}, http.StatusBadRequest},
		{"/v1/inventory/" + item.ID + "/levels/1kg", domain.SetStockLevelRequest{CurrentStock: &negative}, http.StatusBadRequest},
		{"/v1/inventory/" + item.ID + "/levels/5kg", domain.SetStockLevelRequest{CurrentStock: &zero}, http.StatusBadRequest},
		{"/v1/inventory/ghost/levels/1kg", domain.SetStockLevelRequest{CurrentStock: &zero}, http.StatusNotFound},
	} {
		if rec := do(t, router, http.MethodPut, tc.path, token, tc.body); rec.Code != tc.want {
			t.Errorf("PUT %s %v: expected %d, got %d", tc.path, tc.body, tc.want, rec.Code)
		}
	}

	rec = do(t, router, http.MethodGet, "/v1/inventory/movements/recent?limit=5", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("recent movements: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodGet, "/v1/inventory/movements/recent?limit=0", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("recent movements limit=0: expected 400, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/v1/alerts?productId=p1", token, nil)
	var byProduct struct {
		Alerts []domain.StockAlert `json:"alerts"`
		Total  int                 `json:"total"`
	}
	decode(t, rec, &byProduct)
	if byProduct.Total != 1 || byProduct.Alerts[0].ProductID != "p1" {
		t.Fatalf("expected one alert for p1, got %+v", byProduct)
	}
	rec = do(t, router, http.MethodGet, "/v1/alerts?productId=p9", token, nil)
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Errorf("expected no alerts for p9, got %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodDelete, "/v1/alerts/"+byProduct.Alerts[0].ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete alert: expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/alerts", token, nil)
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Errorf("expected no alerts after delete, got %s", rec.Body.String())
	}
}

func TestUsers_Favorites(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/users", token,
		domain.CreateUserRequest{Email: "bo@example.com", DisplayName: "Bo"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var u domain.User
	decode(t, rec, &u)

	for _, p := range []string{"p1", "p2"} {
		rec = do(t, router, http.MethodPost, "/v1/users/"+u.ID+"/favorites/"+p, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("add %s: expected 200, got %d: %s", p, rec.Code, rec.Body.String())
		}
	}
	rec = do(t, router, http.MethodDelete, "/v1/users/"+u.ID+"/favorites/p1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}
	var prefs domain.UserPreferences
	decode(t, rec, &prefs)
	if len(prefs.Favorites) != 1 || prefs.Favorites[0] != "p2" {
		t.Errorf("expected favorites [p2], got %v", prefs.Favorites)
	}

	rec = do(t, router, http.MethodPost, "/v1/users/ghost/favorites/p1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", rec.Code)
	}
}

func TestUsers_LoyaltyAndPreferences(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/v1/users", token,
		domain.CreateUserRequest{Email: "Ana@Example.com", DisplayName: "Ana"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var u domain.User
	decode(t, rec, &u)

	rec = do(t, router, http.MethodPost, "/v1/users", token,
		domain.CreateUserRequest{Email: "ana@example.com", DisplayName: "Ana again"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: expected 409, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/v1/users/"+u.ID+"/loyalty/award", token, domain.LoyaltyRequest{Points: 50})
	if rec.Code != http.StatusOK {
		t.Fatalf("award: expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/v1/users/"+u.ID+"/loyalty/deduct", token, domain.LoyaltyRequest{Points: 80})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraw: expected 422, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/v1/users/"+u.ID+"/preferences", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("preferences: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/v1/users?search=ana", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("search: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodGet, "/v1/users?status=zombie", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status filter: expected 400, got %d", rec.Code)
	}
}

func TestAnalytics(t *testing.T) {
	router, token := newTestRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/v1/analytics/sales?from=2024-02-01&to=2024-01-01", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range: expected 400, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/analytics/sales?from=yesterday", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: expected 400, got %d", rec.Code)
	}

	for _, path := range []string{"/v1/analytics/sales", "/v1/analytics/dashboard", "/v1/analytics/datastore"} {
		rec = do(t, router, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}
