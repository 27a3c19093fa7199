package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var productTracer = otel.Tracer("service/product")

// ProductService manages the catalog and product reviews.
type ProductService struct {
	products port.ProductRepository
	reviews  port.ReviewRepository
	logger   *zap.Logger
}

func NewProductService(products port.ProductRepository, reviews port.ReviewRepository, logger *zap.Logger) *ProductService {
	return &ProductService{products: products, reviews: reviews, logger: logger}
}

func validateProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "Product name is required"}
	}
	if !p.Category.Valid() {
		return &domain.ErrValidation{Field: "category", Message: "Category must be coffee or bean"}
	}
	for _, pr := range p.Prices {
		if pr.Price < 0 {
			return &domain.ErrValidation{Field: "prices", Message: "Price cannot be negative"}
		}
	}
	return nil
}

// ============================================================
// CRUD: /v1/products
// ============================================================

func (s *ProductService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if _, err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "product", ID: id}
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	if category != "" && !category.Valid() {
		return nil, &domain.ErrValidation{Field: "category", Message: "Category must be coffee or bean"}
	}
	return s.products.List(ctx, category)
}

// UpdateProduct replaces the editable fields of a product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, p *domain.Product) (*domain.Product, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	err := s.products.Update(ctx, id, map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"prices":      p.Prices,
		"category":    p.Category,
		"imageUrls":   p.ImageURLs,
		"available":   p.Available,
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := productTracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

// ImportLegacyCatalog copies the coffees and beans collections into
// products in a single batch. Items without an explicit availability flag
// are imported as available.
func (s *ProductService) ImportLegacyCatalog(ctx context.Context) (*domain.ImportResult, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.ImportLegacyCatalog")
	defer span.End()

	var batch []*domain.Product
	for _, category := range []domain.ProductCategory{domain.CategoryCoffee, domain.CategoryBean} {
		items, err := s.products.ListLegacy(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("list legacy %s: %w", category, err)
		}
		for _, it := range items {
			available := true
			if it.Available != nil {
				available = *it.Available
			}
			batch = append(batch, &domain.Product{
				Name:        it.Name,
				Description: it.Description,
				Prices:      it.Prices,
				Category:    category,
				ImageURLs:   it.ImageURLs,
				Available:   available,
			})
		}
	}
	if len(batch) == 0 {
		return &domain.ImportResult{IDs: []string{}}, nil
	}

	ids, err := s.products.CreateMany(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("import legacy catalog: %w", err)
	}
	s.logger.Info("legacy catalog imported", zap.Int("count", len(ids)))
	return &domain.ImportResult{Imported: len(ids), IDs: ids}, nil
}

// ============================================================
// Reviews: /v1/products/{id}/reviews
// ============================================================

func (s *ProductService) AddReview(ctx context.Context, productID string, req *domain.CreateReviewRequest) (*domain.Review, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.AddReview")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, &domain.ErrValidation{Field: "rating", Message: "Rating must be between 1 and 5"}
	}
	if req.UserID == "" {
		return nil, &domain.ErrValidation{Field: "userId", Message: "User id is required"}
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	r := &domain.Review{
		ProductID: productID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Rating:    req.Rating,
		Text:      req.Text,
	}
	if _, err := s.reviews.CreateReview(ctx, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return r, nil
}

// Reviews returns a product's reviews with their average rating.
func (s *ProductService) Reviews(ctx context.Context, productID string) (*domain.ReviewSummary, error) {
	ctx, span := productTracer.Start(ctx, "ProductService.Reviews")
	defer span.End()

	reviews, err := s.reviews.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary := &domain.ReviewSummary{ProductID: productID, Count: len(reviews), Reviews: reviews}
	if len(reviews) > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		summary.AverageRating = float64(sum) / float64(len(reviews))
	}
	return summary, nil
}
