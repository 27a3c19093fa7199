package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

func TestProductCRUD(t *testing.T) {
	h := newHarness(t)
	svc := service.NewProductService(h.products, h.reviews, zap.NewNop())
	ctx := context.Background()

	var ve *domain.ErrValidation
	if _, err := svc.CreateProduct(ctx, &domain.Product{Name: " ", Category: domain.CategoryCoffee}); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for empty name, got %v", err)
	}
	if _, err := svc.CreateProduct(ctx, &domain.Product{Name: "Tea", Category: "tea"}); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for category, got %v", err)
	}

	p, err := svc.CreateProduct(ctx, &domain.Product{
		Name:     "Cortado",
		Category: domain.CategoryCoffee,
		Prices:   []domain.Price{{Size: "S", Price: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}

	p.Prices[0].Price = 3.4
	p.Available = true
	updated, err := svc.UpdateProduct(ctx, p.ID, p)
	if err != nil {
		t.Fatal(err)
	}
	if price, _ := updated.PriceFor("S"); price != 3.4 || !updated.Available {
		t.Errorf("update not applied: %+v", updated)
	}

	list, err := svc.ListProducts(ctx, domain.CategoryCoffee)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 coffee, got %d", len(list))
	}

	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	var nf *domain.ErrNotFound
	if _, err := svc.GetProduct(ctx, p.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestImportLegacyCatalog(t *testing.T) {
	h := newHarness(t)
	svc := service.NewProductService(h.products, h.reviews, zap.NewNop())
	ctx := context.Background()

	mustInsert := func(col, id string, doc port.Document) {
		t.Helper()
		if err := h.store.Insert(ctx, col, id, doc); err != nil {
			t.Fatal(err)
		}
	}
	mustInsert("coffees", "c1", port.Document{"id": "c1", "name": "Espresso", "prices": []any{map[string]any{"size": "S", "price": 2.0}}})
	mustInsert("coffees", "c2", port.Document{"id": "c2", "name": "Ristretto", "available": false})
	mustInsert("beans", "b1", port.Document{"id": "b1", "name": "Sidamo", "createdAt": map[string]any{"seconds": 1700000000.0}})

	res, err := svc.ImportLegacyCatalog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 3 || len(res.IDs) != 3 {
		t.Fatalf("expected 3 imported, got %+v", res)
	}

	coffees, _ := svc.ListProducts(ctx, domain.CategoryCoffee)
	beans, _ := svc.ListProducts(ctx, domain.CategoryBean)
	if len(coffees) != 2 || len(beans) != 1 {
		t.Fatalf("expected 2 coffees and 1 bean, got %d/%d", len(coffees), len(beans))
	}
	for _, c := range coffees {
		if c.Name == "Ristretto" && c.Available {
			t.Error("explicitly unavailable item imported as available")
		}
		if c.Name == "Espresso" && !c.Available {
			t.Error("item without flag should be available")
		}
	}
}

func TestReviews_Summary(t *testing.T) {
	h := newHarness(t)
	svc := service.NewProductService(h.products, h.reviews, zap.NewNop())
	ctx := context.Background()

	p, _ := svc.CreateProduct(ctx, &domain.Product{Name: "Flat White", Category: domain.CategoryCoffee})

	var ve *domain.ErrValidation
	if _, err := svc.AddReview(ctx, p.ID, &domain.CreateReviewRequest{UserID: "u1", Rating: 6}); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for rating 6, got %v", err)
	}
	for _, r := range []int{4, 5} {
		if _, err := svc.AddReview(ctx, p.ID, &domain.CreateReviewRequest{UserID: "u1", Rating: r}); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := svc.Reviews(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 2 || sum.AverageRating != 4.5 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}
