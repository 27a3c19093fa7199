package repository

import (
	"context"
	"strings"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// DefaultUserScanLimit caps the documents read by a filtered user listing.
const DefaultUserScanLimit = 1000

// UserRepository persists customers.
type UserRepository struct {
	ds        *datastore.Service
	scanLimit int
}

var _ port.UserRepository = (*UserRepository)(nil)

func NewUserRepository(ds *datastore.Service, scanLimit int) *UserRepository {
	if scanLimit <= 0 {
		scanLimit = DefaultUserScanLimit
	}
	return &UserRepository{ds: ds, scanLimit: scanLimit}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (string, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return datastore.Create(ctx, r.ds, datastore.Users, u)
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	return datastore.Read(ctx, r.ds, datastore.Users, id)
}

// GetByEmail matches the normalized address, nil when none.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := datastore.List(ctx, r.ds, datastore.Users, datastore.ListOptions{
		Where: datastore.Eq("email", strings.ToLower(strings.TrimSpace(email))),
		Limit: 1,
	})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// serverFilter picks the one clause the store evaluates:
// status, then accountType, then membershipTier.
func serverFilter(f domain.UserFilter) *port.Filter {
	switch {
	case f.Status != "":
		return datastore.Eq("status", f.Status)
	case f.AccountType != "":
		return datastore.Eq("accountType", f.AccountType)
	case f.MembershipTier != "":
		return datastore.Eq("membershipTier", f.MembershipTier)
	}
	return nil
}

// List applies one criterion server-side and the rest in memory over at
// most scanLimit users, newest first.
func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	users, err := datastore.List(ctx, r.ds, datastore.Users, datastore.ListOptions{
		Where:   serverFilter(f),
		OrderBy: newestFirst(),
		Limit:   r.scanLimit,
	})
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for i := range users {
		if f.Matches(&users[i]) {
			out = append(out, users[i])
		}
	}
	return out, nil
}

// Count counts users, optionally with a given status.
func (r *UserRepository) Count(ctx context.Context, status domain.UserStatus) (int, error) {
	var where *port.Filter
	if status != "" {
		where = datastore.Eq("status", status)
	}
	return datastore.Count(ctx, r.ds, datastore.Users, where)
}

func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return datastore.Update(ctx, r.ds, datastore.Users, id, fields)
}

func (r *UserRepository) UpdateVersioned(ctx context.Context, id string, version int, fields map[string]any) error {
	return datastore.UpdateVersioned(ctx, r.ds, datastore.Users, id, version, fields)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return datastore.Delete(ctx, r.ds, datastore.Users, id)
}

// Subscribe streams the users matching f.
func (r *UserRepository) Subscribe(ctx context.Context, f domain.UserFilter, fn func([]domain.User)) (func(), error) {
	unsub, err := datastore.Subscribe(ctx, r.ds, datastore.Users, datastore.ListOptions{
		Where:   serverFilter(f),
		OrderBy: newestFirst(),
		Limit:   r.scanLimit,
	}, func(users []domain.User) {
		out := users[:0]
		for i := range users {
			if f.Matches(&users[i]) {
				out = append(out, users[i])
			}
		}
		fn(out)
	})
	if err != nil {
		return nil, err
	}
	return unsub, nil
}
