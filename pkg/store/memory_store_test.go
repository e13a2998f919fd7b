package store

import (
	"errors"
	"testing"

	"orbitshop/pkg/domain"
)

func userIdentity(id string) domain.CartIdentity {
	return domain.CartIdentity{UserID: id}
}

func TestMemoryStoreAddItemAccumulatesQuantity(t *testing.T) {
	s := NewMemoryStore()
	identity := userIdentity("u-1")

	items, err := s.AddItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Orbit Globe", Price: 29.99, Quantity: 1})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("unexpected items after first add: %+v", items)
	}

	items, err = s.AddItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Orbit Globe", Price: 29.99, Quantity: 2})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("same product must not create a second row, got %d rows", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected accumulated quantity 3, got %d", items[0].Quantity)
	}
}

func TestMemoryStoreGetCartNonexistentIsEmpty(t *testing.T) {
	s := NewMemoryStore()
	items, err := s.GetCart(userIdentity("nobody"))
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestMemoryStoreRemoveItemIdempotent(t *testing.T) {
	s := NewMemoryStore()
	identity := userIdentity("u-2")
	items, err := s.AddItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Globe", Price: 10, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := items[0].ID

	items, err = s.RemoveItem(identity, itemID)
	if err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart after remove, got %d items", len(items))
	}

	items, err = s.RemoveItem(identity, itemID)
	if err != nil {
		t.Fatalf("second remove must succeed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("second remove must not change cart, got %d items", len(items))
	}
}

func TestMemoryStoreUpdateQuantityUnknownItem(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.UpdateItemQuantity(userIdentity("u-3"), "missing", 2); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestMemoryStoreClearCartIdempotent(t *testing.T) {
	s := NewMemoryStore()
	identity := domain.CartIdentity{SessionID: "anon-1"}
	if _, err := s.AddItem(identity, domain.NewCartItem{ProductID: "p1", Name: "Globe", Price: 5, Quantity: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := s.ClearCart(identity)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	if _, err := s.ClearCart(identity); err != nil {
		t.Fatalf("second clear must succeed: %v", err)
	}
}

func TestMemoryStoreUserAndSessionCartsIndependent(t *testing.T) {
	s := NewMemoryStore()
	userCart := domain.CartIdentity{UserID: "u-4"}
	anonCart := domain.CartIdentity{SessionID: "u-4"} // same raw id, different namespace

	if _, err := s.AddItem(userCart, domain.NewCartItem{ProductID: "p1", Name: "Globe", Price: 5, Quantity: 1}); err != nil {
		t.Fatalf("add to user cart: %v", err)
	}
	items, err := s.GetCart(anonCart)
	if err != nil {
		t.Fatalf("get anon cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("anonymous cart must not see user cart items")
	}
}

func TestMemoryStoreUserByEmail(t *testing.T) {
	s := NewMemoryStore()
	user := domain.User{ID: "u-5", Email: "a@x.com", FirstName: "Ada", LastName: "Orbit"}
	if err := s.SaveUser(user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	got, ok, err := s.GetUserByEmail("a@x.com")
	if err != nil || !ok {
		t.Fatalf("get user by email: ok=%v err=%v", ok, err)
	}
	if got.ID != "u-5" {
		t.Fatalf("unexpected user: %+v", got)
	}
	exists, err := s.HasUserEmail("a@x.com")
	if err != nil || !exists {
		t.Fatalf("has user email: exists=%v err=%v", exists, err)
	}
}

func TestMemoryStoreProductsKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := s.SaveProduct(domain.Product{ID: id, Name: "Product " + id, Price: 1}); err != nil {
			t.Fatalf("save product %s: %v", id, err)
		}
	}
	if err := s.DeleteProduct("p2"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	products, err := s.ListProducts()
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 2 || products[0].ID != "p1" || products[1].ID != "p3" {
		t.Fatalf("unexpected products: %+v", products)
	}
}
