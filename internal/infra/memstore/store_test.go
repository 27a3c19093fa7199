package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/memstore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/storetest"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) port.DocumentStore {
		s := memstore.New()
		t.Cleanup(func() { s.Close(context.Background()) })
		return s
	})
}

func TestGetReturnsCopy(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	if err := s.Insert(ctx, "products", "p1", port.Document{"name": "Latte", "prices": []any{map[string]any{"size": "M"}}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, _ := s.Get(ctx, "products", "p1")
	got["name"] = "changed"
	got["prices"].([]any)[0].(map[string]any)["size"] = "XL"

	again, _ := s.Get(ctx, "products", "p1")
	if again["name"] != "Latte" {
		t.Fatalf("name = %v, want Latte", again["name"])
	}
	if size := again["prices"].([]any)[0].(map[string]any)["size"]; size != "M" {
		t.Fatalf("nested size = %v, want M", size)
	}
}

func TestQueryDottedFieldAndMixedNumbers(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	s.Insert(ctx, "userPreferences", "a", port.Document{"notifications": map[string]any{"email": true}, "rank": 2})
	s.Insert(ctx, "userPreferences", "b", port.Document{"notifications": map[string]any{"email": false}, "rank": 1.5})
	s.Insert(ctx, "userPreferences", "c", port.Document{"notifications": map[string]any{"email": true}, "rank": float64(3)})

	snaps, err := s.Query(ctx, "userPreferences", port.Query{
		Where:   &port.Filter{Field: "notifications.email", Value: true},
		OrderBy: &port.Order{Field: "rank"},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != "a" || snaps[1].ID != "c" {
		t.Fatalf("unexpected result: %+v", snaps)
	}
}

func TestWatchCallbackCanStopItself(t *testing.T) {
	s := memstore.New()
	t.Cleanup(func() { s.Close(context.Background()) })
	ctx := context.Background()

	stopCh := make(chan func(), 1)
	returned := make(chan struct{})
	deliveries := 0
	stop, err := s.Watch(ctx, "orders", port.Query{}, func([]port.Snapshot) {
		deliveries++
		(<-stopCh)()
		close(returned)
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	stopCh <- stop

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("stop called from inside the callback did not return")
	}

	s.Insert(ctx, "orders", "o1", port.Document{"status": "pending"})
	stop()
	if deliveries != 1 {
		t.Fatalf("deliveries = %d, want 1", deliveries)
	}
}
