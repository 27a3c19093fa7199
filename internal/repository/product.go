package repository

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

const productCacheName = "products"

// ProductRepository persists the catalog. Listings are cached per category
// and every write drops the cached listings.
type ProductRepository struct {
	ds      *datastore.Service
	cache   port.Cache[[]domain.Product]
	metrics *observability.Metrics
}

var _ port.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a product repository. cache may be nil.
func NewProductRepository(ds *datastore.Service, cache port.Cache[[]domain.Product], metrics *observability.Metrics) *ProductRepository {
	return &ProductRepository{ds: ds, cache: cache, metrics: metrics}
}

func listKey(category domain.ProductCategory) string {
	if category == "" {
		return "products:all"
	}
	return "products:" + string(category)
}

func (r *ProductRepository) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	for _, c := range []domain.ProductCategory{"", domain.CategoryCoffee, domain.CategoryBean} {
		r.cache.Delete(ctx, listKey(c))
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (string, error) {
	id, err := datastore.Create(ctx, r.ds, datastore.Products, p)
	if err != nil {
		return "", err
	}
	r.invalidate(ctx)
	return id, nil
}

// CreateMany stores every product in one batch.
func (r *ProductRepository) CreateMany(ctx context.Context, products []*domain.Product) ([]string, error) {
	ops := make([]datastore.Operation, 0, len(products))
	for _, p := range products {
		ops = append(ops, datastore.CreateOp(datastore.Products, p))
	}
	ids, err := r.ds.BatchWrite(ctx, ops...)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return ids, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	return datastore.Read(ctx, r.ds, datastore.Products, id)
}

// List returns products by name, optionally restricted to a category.
func (r *ProductRepository) List(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error) {
	key := listKey(category)
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, key); ok {
			r.metrics.IncrCacheHit(productCacheName)
			return cached, nil
		}
		r.metrics.IncrCacheMiss(productCacheName)
	}

	opts := datastore.ListOptions{OrderBy: datastore.Asc("name")}
	if category != "" {
		opts.Where = datastore.Eq("category", category)
	}
	products, err := datastore.List(ctx, r.ds, datastore.Products, opts)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(ctx, key, products)
	}
	return products, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	return datastore.Count(ctx, r.ds, datastore.Products, nil)
}

func (r *ProductRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := datastore.Update(ctx, r.ds, datastore.Products, id, fields); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := datastore.Delete(ctx, r.ds, datastore.Products, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// ListLegacy reads the old coffees and beans collections. An empty
// category reads both.
func (r *ProductRepository) ListLegacy(ctx context.Context, category domain.ProductCategory) ([]domain.LegacyCatalogItem, error) {
	var cols []datastore.Collection[domain.LegacyCatalogItem]
	switch category {
	case domain.CategoryCoffee:
		cols = append(cols, datastore.Coffees)
	case domain.CategoryBean:
		cols = append(cols, datastore.Beans)
	case "":
		cols = append(cols, datastore.Coffees, datastore.Beans)
	default:
		return nil, &domain.ErrValidation{Field: "category", Message: "unknown category " + string(category)}
	}

	var out []domain.LegacyCatalogItem
	for _, col := range cols {
		items, err := datastore.List(ctx, r.ds, col, datastore.ListOptions{OrderBy: datastore.Asc("name")})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
