package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
)

func seedItem(t *testing.T, h *harness, pub *mockPublisher) (string, domain.Actor) {
	t.Helper()
	svc := h.inventoryService(pub)
	item, err := svc.CreateItem(context.Background(), &domain.CreateInventoryRequest{
		ProductID:   "prod-1",
		ProductName: "House Blend",
		StockLevels: []domain.StockLevel{
			{Size: "250g", CurrentStock: 10, ReorderPoint: 3, MaxStock: 20, Cost: 4},
			{Size: "1kg", CurrentStock: 5, ReorderPoint: 1, Cost: 14},
		},
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item.ID, domain.Actor{UserID: "admin-1", UserEmail: "admin@shop.test"}
}

func TestCreateItem_Validation(t *testing.T) {
	h := newHarness(t)
	svc := h.inventoryService(nil)
	ctx := context.Background()

	cases := []*domain.CreateInventoryRequest{
		{ProductID: "", StockLevels: []domain.StockLevel{{Size: "S"}}},
		{ProductID: "p", StockLevels: nil},
		{ProductID: "p", StockLevels: []domain.StockLevel{{Size: "S"}, {Size: "S"}}},
		{ProductID: "p", StockLevels: []domain.StockLevel{{Size: "S", CurrentStock: -1}}},
	}
	for i, req := range cases {
		var ve *domain.ErrValidation
		if _, err := svc.CreateItem(ctx, req); !errors.As(err, &ve) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}

	seedItem(t, h, nil)
	var conflict *domain.ErrConflict
	_, err := svc.CreateItem(ctx, &domain.CreateInventoryRequest{ProductID: "prod-1", StockLevels: []domain.StockLevel{{Size: "S"}}})
	if !errors.As(err, &conflict) {
		t.Errorf("expected ErrConflict for second item of a product, got %v", err)
	}
}

func TestAdjustStock_OutMovementRaisesLowStockAlert(t *testing.T) {
	h := newHarness(t)
	pub := &mockPublisher{}
	id, actor := seedItem(t, h, pub)
	svc := h.inventoryService(pub)
	ctx := context.Background()

	res, err := svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "250g", Type: domain.MovementOut, Quantity: 8, Reason: "sold"}, actor)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Movement.Quantity != -8 || res.Movement.PreviousStock != 10 || res.Movement.NewStock != 2 {
		t.Errorf("unexpected movement: %+v", res.Movement)
	}
	if res.Movement.UserEmail != actor.UserEmail {
		t.Errorf("expected audit email %q, got %q", actor.UserEmail, res.Movement.UserEmail)
	}
	if res.Item.Status != domain.StockLow || res.Item.TotalStock != 7 {
		t.Errorf("unexpected item state: status=%s total=%d", res.Item.Status, res.Item.TotalStock)
	}
	if res.Alert == nil || res.Alert.Type != domain.AlertLowStock || res.Alert.Severity != domain.SeverityWarning {
		t.Fatalf("expected low stock alert, got %+v", res.Alert)
	}

	if got := pub.published(); len(got) != 1 || got[0].ID != res.Alert.ID {
		t.Errorf("expected the committed alert to be published, got %+v", got)
	}
	unread, _ := h.stock.ListUnread(ctx)
	if len(unread) != 1 {
		t.Errorf("expected 1 stored alert, got %d", len(unread))
	}

	// Still below the reorder point: no second alert.
	res, err = svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "250g", Type: domain.MovementOut, Quantity: 1}, actor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Alert != nil {
		t.Errorf("expected no alert while staying in the same band, got %+v", res.Alert)
	}
}

func TestAdjustStock_CannotGoNegative(t *testing.T) {
	h := newHarness(t)
	id, actor := seedItem(t, h, nil)
	svc := h.inventoryService(nil)
	ctx := context.Background()

	_, err := svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "1kg", Type: domain.MovementOut, Quantity: 6}, actor)
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	item, _ := h.inventory.Get(ctx, id)
	if item.Level("1kg").CurrentStock != 5 {
		t.Errorf("stock changed after a rejected adjustment: %d", item.Level("1kg").CurrentStock)
	}
	movements, _ := h.stock.ListMovementsByInventory(ctx, id)
	if len(movements) != 0 {
		t.Errorf("expected no movements, got %d", len(movements))
	}
}

func TestAdjustStock_OutOfStockAndRestock(t *testing.T) {
	h := newHarness(t)
	pub := &mockPublisher{}
	id, actor := seedItem(t, h, pub)
	svc := h.inventoryService(pub)
	ctx := context.Background()

	res, err := svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "1kg", Type: domain.MovementAdjustment, Quantity: -5}, actor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Alert == nil || res.Alert.Type != domain.AlertOutOfStock || res.Alert.Severity != domain.SeverityCritical {
		t.Fatalf("expected out of stock alert, got %+v", res.Alert)
	}

	res, err = svc.Restock(ctx, id, "1kg", 4, actor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Movement.Type != domain.MovementIn || res.Movement.NewStock != 4 {
		t.Errorf("unexpected restock movement: %+v", res.Movement)
	}
	if res.Item.LastRestocked.IsZero() {
		t.Error("expected lastRestocked to be set")
	}

	res, err = svc.Restock(ctx, id, "250g", 15, actor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Alert == nil || res.Alert.Type != domain.AlertOverstock {
		t.Errorf("expected overstock alert, got %+v", res.Alert)
	}

	var ve *domain.ErrValidation
	if _, err := svc.Restock(ctx, id, "1kg", 0, actor); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for zero restock, got %v", err)
	}
}

func TestAdjustStock_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	pub := &mockPublisher{err: errors.New("redis down")}
	id, actor := seedItem(t, h, pub)
	svc := h.inventoryService(pub)

	res, err := svc.AdjustStock(context.Background(), id, &domain.AdjustStockRequest{Size: "1kg", Type: domain.MovementOut, Quantity: 5}, actor)
	if err != nil {
		t.Fatalf("expected publish error to be swallowed, got %v", err)
	}
	if res.Alert == nil {
		t.Fatal("expected an alert")
	}
}

func TestAlerts_MarkRead(t *testing.T) {
	h := newHarness(t)
	id, actor := seedItem(t, h, nil)
	svc := h.inventoryService(nil)
	ctx := context.Background()

	svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "1kg", Type: domain.MovementOut, Quantity: 5}, actor)
	svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "250g", Type: domain.MovementOut, Quantity: 9}, actor)

	unread, err := svc.ListAlerts(ctx, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 unread alerts, got %d", len(unread))
	}
	if err := svc.MarkAlertRead(ctx, unread[0].ID); err != nil {
		t.Fatal(err)
	}
	n, err := svc.MarkAllAlertsRead(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 alert marked, got %d", n)
	}
}

func TestForecast_FromRecordedOutflow(t *testing.T) {
	h := newHarness(t)
	id, actor := seedItem(t, h, nil)
	svc := h.inventoryService(nil)
	ctx := context.Background()

	if _, err := svc.AdjustStock(ctx, id, &domain.AdjustStockRequest{Size: "250g", Type: domain.MovementOut, Quantity: 6}, actor); err != nil {
		t.Fatal(err)
	}
	// Outflow older than the window is ignored.
	oldID, err := h.stock.RecordMovement(ctx, &domain.StockMovement{InventoryID: id, Size: "250g", Type: domain.MovementOut, Quantity: -50})
	if err != nil {
		t.Fatal(err)
	}
	old := domain.FormatTime(time.Now().Add(-90 * 24 * time.Hour))
	if err := h.store.Merge(ctx, "stockMovements", oldID, map[string]any{"createdAt": old}, 0); err != nil {
		t.Fatal(err)
	}

	f, err := svc.Forecast(ctx, id, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Sizes) != 2 {
		t.Fatalf("expected 2 sizes, got %d", len(f.Sizes))
	}

	small := f.Sizes[0]
	if small.Size != "250g" || small.AverageDailyUsage != 2 {
		t.Errorf("expected 2 units/day for 250g, got %+v", small)
	}
	if small.DaysUntilStockout != 2 {
		t.Errorf("expected 2 days until stockout, got %v", small.DaysUntilStockout)
	}
	// 14 days of cover is 28 units, capped at maxStock 20.
	if small.SuggestedReorder != 16 {
		t.Errorf("expected reorder of 16, got %d", small.SuggestedReorder)
	}

	big := f.Sizes[1]
	if big.DaysUntilStockout != -1 || big.SuggestedReorder != 0 {
		t.Errorf("expected no projection without outflow, got %+v", big)
	}
}
