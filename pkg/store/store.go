package store

import (
	"errors"

	"orbitshop/pkg/domain"
)

// ErrItemNotFound is returned when a quantity update names a cart item that
// does not exist in the identity's cart. Item removal is idempotent and never
// returns it.
var ErrItemNotFound = errors.New("cart item not found")

// Store persists principals and the product catalog.
type Store interface {
	// admins
	SaveAdmin(domain.Admin) error
	GetAdminByEmail(email string) (domain.Admin, bool, error)
	GetAdminByID(id string) (domain.Admin, bool, error)

	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// products
	SaveProduct(domain.Product) error
	GetProduct(id string) (domain.Product, bool, error)
	ListProducts() ([]domain.Product, error)
	DeleteProduct(id string) error
}

// CartStore persists cart state keyed by cart identity. Every mutation is
// atomic per identity so two concurrent requests for the same cart cannot
// lose updates. All methods return the cart's item list after the operation.
type CartStore interface {
	// GetCart returns the current items; a nonexistent cart reads as empty.
	GetCart(identity domain.CartIdentity) ([]domain.CartItem, error)

	// AddItem creates the cart on first use. Adding a product already in the
	// cart increments its quantity instead of inserting a second row.
	AddItem(identity domain.CartIdentity, item domain.NewCartItem) ([]domain.CartItem, error)

	// UpdateItemQuantity sets an item's quantity to an explicit value >= 1.
	UpdateItemQuantity(identity domain.CartIdentity, itemID string, quantity int) ([]domain.CartItem, error)

	// RemoveItem deletes an item; removing an unknown item id is a no-op.
	RemoveItem(identity domain.CartIdentity, itemID string) ([]domain.CartItem, error)

	// ClearCart deletes every item for the identity; idempotent.
	ClearCart(identity domain.CartIdentity) ([]domain.CartItem, error)
}

// SessionStore persists session tokens for exactly one principal kind.
// Invalid, expired, or revoked tokens resolve to ("", false, nil); an error
// is returned only when the backing store itself failed.
type SessionStore interface {
	NewSession(principalID string) (string, error)
	GetPrincipalIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
