package datastore

import "github.com/boddenberg/coffee-admin-bfa-go/internal/domain"

// Collection names a document collection and binds it to its record type.
// The set is closed: values can only be declared in this package.
type Collection[T any] struct {
	name string
}

// Name returns the collection name as stored by the backend.
func (c Collection[T]) Name() string { return c.name }

func (c Collection[T]) String() string { return c.name }

var (
	Users           = Collection[domain.User]{"users"}
	Products        = Collection[domain.Product]{"products"}
	Coffees         = Collection[domain.LegacyCatalogItem]{"coffees"}
	Beans           = Collection[domain.LegacyCatalogItem]{"beans"}
	Orders          = Collection[domain.Order]{"orders"}
	Inventory       = Collection[domain.InventoryItem]{"inventory"}
	StockAlerts     = Collection[domain.StockAlert]{"stockAlerts"}
	StockMovements  = Collection[domain.StockMovement]{"stockMovements"}
	Reviews         = Collection[domain.Review]{"reviews"}
	Comments        = Collection[domain.Comment]{"comments"}
	UserPreferences = Collection[domain.UserPreferences]{"userPreferences"}
	Admins          = Collection[domain.Admin]{"admins"}
)

// Names lists every collection, for backends that provision them up front.
func Names() []string {
	return []string{
		Users.name, Products.name, Coffees.name, Beans.name, Orders.name,
		Inventory.name, StockAlerts.name, StockMovements.name, Reviews.name,
		Comments.name, UserPreferences.name, Admins.name,
	}
}
