package repository

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// ReviewRepository persists product reviews and comments.
type ReviewRepository struct {
	ds *datastore.Service
}

var _ port.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(ds *datastore.Service) *ReviewRepository {
	return &ReviewRepository{ds: ds}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, rv *domain.Review) (string, error) {
	return datastore.Create(ctx, r.ds, datastore.Reviews, rv)
}

func (r *ReviewRepository) ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	return datastore.List(ctx, r.ds, datastore.Reviews, datastore.ListOptions{
		Where:   datastore.Eq("productId", productID),
		OrderBy: newestFirst(),
	})
}

func (r *ReviewRepository) DeleteReview(ctx context.Context, id string) error {
	return datastore.Delete(ctx, r.ds, datastore.Reviews, id)
}

func (r *ReviewRepository) CreateComment(ctx context.Context, c *domain.Comment) (string, error) {
	return datastore.Create(ctx, r.ds, datastore.Comments, c)
}

func (r *ReviewRepository) ListComments(ctx context.Context, productID string) ([]domain.Comment, error) {
	return datastore.List(ctx, r.ds, datastore.Comments, datastore.ListOptions{
		Where:   datastore.Eq("productId", productID),
		OrderBy: datastore.Asc(domain.FieldCreatedAt),
	})
}
