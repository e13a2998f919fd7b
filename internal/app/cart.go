package app

import (
	"errors"
	"log/slog"

	"orbitshop/pkg/domain"
	"orbitshop/pkg/store"
)

const demoModeMessage = "cart is running in demo mode - changes are not persisted"

// ViewCart returns the current cart for the identity. A cart that was never
// created reads as empty.
func (a *App) ViewCart(identity domain.CartIdentity) (domain.CartView, error) {
	identity, err := resolveIdentity(identity)
	if err != nil {
		return domain.CartView{}, err
	}
	return a.withFallback(identity, func(carts store.CartStore) ([]domain.CartItem, error) {
		return carts.GetCart(identity)
	})
}

// AddCartItem adds a product to the identity's cart, creating the cart on
// first use. Adding a product already in the cart increments its quantity.
func (a *App) AddCartItem(identity domain.CartIdentity, item domain.NewCartItem) (domain.CartView, error) {
	identity, err := resolveIdentity(identity)
	if err != nil {
		return domain.CartView{}, err
	}
	if item.ProductID == "" || item.Name == "" || item.Price < 0 {
		return domain.CartView{}, ErrInvalidCartItem
	}
	if item.Quantity < 0 {
		return domain.CartView{}, ErrInvalidQuantity
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	return a.withFallback(identity, func(carts store.CartStore) ([]domain.CartItem, error) {
		return carts.AddItem(identity, item)
	})
}

// UpdateCartItemQuantity sets an item's quantity to an explicit value.
// Quantities below 1 are rejected; an item that should disappear is removed,
// never kept at zero.
func (a *App) UpdateCartItemQuantity(identity domain.CartIdentity, itemID string, quantity int) (domain.CartView, error) {
	identity, err := resolveIdentity(identity)
	if err != nil {
		return domain.CartView{}, err
	}
	if quantity < 1 {
		return domain.CartView{}, ErrInvalidQuantity
	}
	return a.withFallback(identity, func(carts store.CartStore) ([]domain.CartItem, error) {
		return carts.UpdateItemQuantity(identity, itemID, quantity)
	})
}

// RemoveCartItem deletes an item from the cart; removing an unknown item id
// succeeds with no change.
func (a *App) RemoveCartItem(identity domain.CartIdentity, itemID string) (domain.CartView, error) {
	identity, err := resolveIdentity(identity)
	if err != nil {
		return domain.CartView{}, err
	}
	return a.withFallback(identity, func(carts store.CartStore) ([]domain.CartItem, error) {
		return carts.RemoveItem(identity, itemID)
	})
}

// ClearCart removes every item for the identity; idempotent.
func (a *App) ClearCart(identity domain.CartIdentity) (domain.CartView, error) {
	identity, err := resolveIdentity(identity)
	if err != nil {
		return domain.CartView{}, err
	}
	return a.withFallback(identity, func(carts store.CartStore) ([]domain.CartItem, error) {
		return carts.ClearCart(identity)
	})
}

// withFallback runs the operation against the persistent cart store and, when
// that store is unreachable, replays it against the in-process demo store so
// the shopper can keep going. Demo responses are always flagged as such.
// Domain outcomes (unknown item) pass through untouched.
func (a *App) withFallback(identity domain.CartIdentity, op func(store.CartStore) ([]domain.CartItem, error)) (domain.CartView, error) {
	items, err := op(a.carts)
	if err == nil {
		return domain.NewCartView(items, domain.CartModePersistent), nil
	}
	if errors.Is(err, store.ErrItemNotFound) {
		return domain.CartView{}, err
	}
	slog.Warn("cart store unreachable, falling back to demo mode", "cart", identity.Key(), "err", err)
	items, err = op(a.demo)
	if err != nil {
		return domain.CartView{}, err
	}
	view := domain.NewCartView(items, domain.CartModeDemo)
	view.Message = demoModeMessage
	return view, nil
}

// resolveIdentity applies the precedence rule: a durable user id wins over an
// anonymous session id when both are supplied.
func resolveIdentity(identity domain.CartIdentity) (domain.CartIdentity, error) {
	if identity.IsZero() {
		return identity, ErrCartIdentityRequired
	}
	if identity.UserID != "" {
		return domain.CartIdentity{UserID: identity.UserID}, nil
	}
	return domain.CartIdentity{SessionID: identity.SessionID}, nil
}
