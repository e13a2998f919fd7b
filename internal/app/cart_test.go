package app

import (
	"errors"
	"testing"
	"time"

	"orbitshop/pkg/domain"
	"orbitshop/pkg/store"
)

func userIdentity(id string) domain.CartIdentity {
	return domain.CartIdentity{UserID: id}
}

func TestAddCartItemAccumulatesQuantity(t *testing.T) {
	a := newTestApp(t)
	identity := userIdentity("u1")

	item := domain.NewCartItem{ProductID: "p1", Name: "Orbit Mug", Price: 9.50, Quantity: 1}
	if _, err := a.AddCartItem(identity, item); err != nil {
		t.Fatalf("first add: %v", err)
	}
	view, err := a.AddCartItem(identity, item)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected a single line item, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", view.Items[0].Quantity)
	}
	if view.Total != 19.00 || view.ItemCount != 2 {
		t.Fatalf("totals not recomputed: total=%v itemCount=%d", view.Total, view.ItemCount)
	}
	if view.Mode != domain.CartModePersistent {
		t.Fatalf("expected persistent mode, got %q", view.Mode)
	}
}

func TestAddCartItemDefaultsQuantityToOne(t *testing.T) {
	a := newTestApp(t)
	view, err := a.AddCartItem(userIdentity("u1"), domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 5})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if view.ItemCount != 1 {
		t.Fatalf("expected defaulted quantity 1, got %d", view.ItemCount)
	}
}

func TestAddCartItemValidation(t *testing.T) {
	a := newTestApp(t)
	identity := userIdentity("u1")

	if _, err := a.AddCartItem(identity, domain.NewCartItem{Name: "Mug", Price: 5}); !errors.Is(err, ErrInvalidCartItem) {
		t.Fatalf("missing product id: expected ErrInvalidCartItem, got %v", err)
	}
	if _, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Price: 5}); !errors.Is(err, ErrInvalidCartItem) {
		t.Fatalf("missing name: expected ErrInvalidCartItem, got %v", err)
	}
	if _, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: -1}); !errors.Is(err, ErrInvalidCartItem) {
		t.Fatalf("negative price: expected ErrInvalidCartItem, got %v", err)
	}
	if _, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 5, Quantity: -2}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("negative quantity: expected ErrInvalidQuantity, got %v", err)
	}
}

func TestUpdateCartItemQuantity(t *testing.T) {
	a := newTestApp(t)
	identity := userIdentity("u1")

	view, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 4, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := view.Items[0].ID

	view, err = a.UpdateCartItemQuantity(identity, itemID, 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Items[0].Quantity != 5 || view.Total != 20 {
		t.Fatalf("unexpected view after update: %+v", view)
	}

	if _, err := a.UpdateCartItemQuantity(identity, itemID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := a.UpdateCartItemQuantity(identity, "missing", 3); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("unknown item: expected ErrItemNotFound, got %v", err)
	}
}

func TestRemoveCartItemIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	identity := userIdentity("u1")

	view, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 4, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := view.Items[0].ID

	view, err = a.RemoveCartItem(identity, itemID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Items) != 0 || view.Total != 0 {
		t.Fatalf("expected empty cart after remove, got %+v", view)
	}

	// Removing again succeeds with no change.
	if _, err := a.RemoveCartItem(identity, itemID); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestClearCart(t *testing.T) {
	a := newTestApp(t)
	identity := userIdentity("u1")

	if _, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 4, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := a.ClearCart(identity)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(view.Items) != 0 || view.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
	// Clearing an already-empty cart is fine.
	if _, err := a.ClearCart(identity); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestViewCartNeverCreated(t *testing.T) {
	a := newTestApp(t)
	view, err := a.ViewCart(userIdentity("fresh"))
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Items) != 0 || view.Total != 0 || view.ItemCount != 0 {
		t.Fatalf("expected empty view, got %+v", view)
	}
}

func TestCartIdentityPrecedence(t *testing.T) {
	a := newTestApp(t)

	both := domain.CartIdentity{UserID: "u1", SessionID: "s1"}
	if _, err := a.AddCartItem(both, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 4, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// The item landed in the user cart, not the session cart.
	userView, err := a.ViewCart(domain.CartIdentity{UserID: "u1"})
	if err != nil {
		t.Fatalf("view user cart: %v", err)
	}
	if len(userView.Items) != 1 {
		t.Fatalf("expected item in user cart, got %+v", userView)
	}
	sessionView, err := a.ViewCart(domain.CartIdentity{SessionID: "s1"})
	if err != nil {
		t.Fatalf("view session cart: %v", err)
	}
	if len(sessionView.Items) != 0 {
		t.Fatalf("session cart should be untouched, got %+v", sessionView)
	}

	if _, err := a.ViewCart(domain.CartIdentity{}); !errors.Is(err, ErrCartIdentityRequired) {
		t.Fatalf("expected ErrCartIdentityRequired, got %v", err)
	}
}

func TestCartFallsBackToDemoMode(t *testing.T) {
	a, err := New(Config{
		Store:         store.NewMemoryStore(),
		Carts:         &failingCartStore{},
		AdminSessions: store.NewMemorySessionStore(time.Hour),
		UserSessions:  store.NewMemorySessionStore(time.Hour),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	identity := userIdentity("u1")

	view, err := a.AddCartItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Mug", Price: 4, Quantity: 1})
	if err != nil {
		t.Fatalf("add should fall back, got error: %v", err)
	}
	if view.Mode != domain.CartModeDemo {
		t.Fatalf("expected demo mode, got %q", view.Mode)
	}
	if view.Message == "" {
		t.Fatal("demo responses must carry the demo message")
	}
	if len(view.Items) != 1 || view.Total != 4 {
		t.Fatalf("fallback did not apply the operation: %+v", view)
	}

	// The demo store keeps state across operations within the process.
	view, err = a.ViewCart(identity)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Mode != domain.CartModeDemo || len(view.Items) != 1 {
		t.Fatalf("expected demo cart with one item, got %+v", view)
	}
}

func TestCartDomainErrorsDoNotTriggerFallback(t *testing.T) {
	a := newTestApp(t)
	identity := userIdentity("u1")

	_, err := a.UpdateCartItemQuantity(identity, "missing", 2)
	if !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound to pass through, got %v", err)
	}
}

// failingCartStore simulates an unreachable database for every cart operation.
type failingCartStore struct{}

var errCartStoreDown = errors.New("dial tcp: connection refused")

func (f *failingCartStore) GetCart(domain.CartIdentity) ([]domain.CartItem, error) {
	return nil, errCartStoreDown
}

func (f *failingCartStore) AddItem(domain.CartIdentity, domain.NewCartItem) ([]domain.CartItem, error) {
	return nil, errCartStoreDown
}

func (f *failingCartStore) UpdateItemQuantity(domain.CartIdentity, string, int) ([]domain.CartItem, error) {
	return nil, errCartStoreDown
}

func (f *failingCartStore) RemoveItem(domain.CartIdentity, string) ([]domain.CartItem, error) {
	return nil, errCartStoreDown
}

func (f *failingCartStore) ClearCart(domain.CartIdentity) ([]domain.CartItem, error) {
	return nil, errCartStoreDown
}

var _ store.CartStore = (*failingCartStore)(nil)
