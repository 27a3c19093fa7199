package repository

import (
	"context"
	"slices"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/datastore"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// PreferencesRepository stores one preferences document per user, keyed by
// the user id.
type PreferencesRepository struct {
	ds *datastore.Service
}

var _ port.PreferencesRepository = (*PreferencesRepository)(nil)

func NewPreferencesRepository(ds *datastore.Service) *PreferencesRepository {
	return &PreferencesRepository{ds: ds}
}

// Get returns nil when the user has no preferences yet.
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	return datastore.Read(ctx, r.ds, datastore.UserPreferences, userID)
}

// Save creates or replaces the preferences of userID.
func (r *PreferencesRepository) Save(ctx context.Context, userID string, p *domain.UserPreferences) error {
	existing, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.Favorites == nil {
		p.Favorites = []string{}
	}
	if existing == nil {
		p.ID = userID
		_, err := datastore.Create(ctx, r.ds, datastore.UserPreferences, p)
		return err
	}
	return datastore.Update(ctx, r.ds, datastore.UserPreferences, userID, map[string]any{
		"favorites":      p.Favorites,
		"addresses":      p.Addresses,
		"paymentMethods": p.PaymentMethods,
		"notifications":  p.Notifications,
	})
}

func (r *PreferencesRepository) AddFavorite(ctx context.Context, userID, productID string) error {
	return r.editFavorites(ctx, userID, func(favs []string) []string {
		if slices.Contains(favs, productID) {
			return favs
		}
		return append(favs, productID)
	})
}

func (r *PreferencesRepository) RemoveFavorite(ctx context.Context, userID, productID string) error {
	return r.editFavorites(ctx, userID, func(favs []string) []string {
		return slices.DeleteFunc(favs, func(id string) bool { return id == productID })
	})
}

func (r *PreferencesRepository) editFavorites(ctx context.Context, userID string, edit func([]string) []string) error {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		p = &domain.UserPreferences{Notifications: domain.NotificationSettings{Email: true, Push: true}}
	}
	p.Favorites = edit(p.Favorites)
	return r.Save(ctx, userID, p)
}
