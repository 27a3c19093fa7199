package repository

import (
	"context"
	"strings"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// AdminRepository persists back-office accounts.
type AdminRepository struct {
	ds *datastore.Service
}

var _ port.AdminRepository = (*AdminRepository)(nil)

func NewAdminRepository(ds *datastore.Service) *AdminRepository {
	return &AdminRepository{ds: ds}
}

func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) (string, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return datastore.Create(ctx, r.ds, datastore.Admins, a)
}

func (r *AdminRepository) Get(ctx context.Context, id string) (*domain.Admin, error) {
	return datastore.Read(ctx, r.ds, datastore.Admins, id)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	admins, err := datastore.List(ctx, r.ds, datastore.Admins, datastore.ListOptions{
		Where: datastore.Eq("email", strings.ToLower(strings.TrimSpace(email))),
		Limit: 1,
	})
	if err != nil || len(admins) == 0 {
		return nil, err
	}
	return &admins[0], nil
}

func (r *AdminRepository) RecordLogin(ctx context.Context, id string) error {
	return datastore.Update(ctx, r.ds, datastore.Admins, id, map[string]any{
		"lastLoginAt": domain.NewTimestamp(r.ds.Now()),
	})
}

// CreateWithProfile stores the admin and a user profile sharing its id in
// one batch.
func (r *AdminRepository) CreateWithProfile(ctx context.Context, a *domain.Admin, profile *domain.User) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	profile.Email = a.Email
	if a.ID == "" {
		a.ID = r.ds.NewID()
	}
	profile.ID = a.ID

	_, err := r.ds.BatchWrite(ctx,
		datastore.CreateOp(datastore.Admins, a),
		datastore.CreateOp(datastore.Users, profile),
	)
	return err
}
