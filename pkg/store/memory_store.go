package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"orbitshop/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and the cart
// engine's demo-mode fallback; nothing in it survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	admins      map[string]domain.Admin
	adminEmails map[string]string // email -> admin ID
	users       map[string]domain.User
	userEmails  map[string]string // email -> user ID
	products    map[string]domain.Product
	productIDs  []string // insertion order
	carts       map[string]*memCart // key: identity key
}

type memCart struct {
	id    string
	items []domain.CartItem
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admins:      make(map[string]domain.Admin),
		adminEmails: make(map[string]string),
		users:       make(map[string]domain.User),
		userEmails:  make(map[string]string),
		products:    make(map[string]domain.Product),
		carts:       make(map[string]*memCart),
	}
}

// admins

func (m *MemoryStore) SaveAdmin(a domain.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.admins[a.ID]; ok && prev.Email != a.Email {
		delete(m.adminEmails, prev.Email)
	}
	m.admins[a.ID] = a
	m.adminEmails[a.Email] = a.ID
	return nil
}

func (m *MemoryStore) GetAdminByEmail(email string) (domain.Admin, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.adminEmails[email]
	if !ok {
		return domain.Admin{}, false, nil
	}
	admin, ok := m.admins[id]
	return admin, ok, nil
}

func (m *MemoryStore) GetAdminByID(id string) (domain.Admin, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	admin, ok := m.admins[id]
	return admin, ok, nil
}

// users

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.userEmails, prev.Email)
	}
	m.users[u.ID] = u
	m.userEmails[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.userEmails[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.userEmails[email]
	if !ok {
		return domain.User{}, false, nil
	}
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// products

func (m *MemoryStore) SaveProduct(p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[p.ID]; !exists {
		m.productIDs = append(m.productIDs, p.ID)
	}
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStore) GetProduct(id string) (domain.Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	return p, ok, nil
}

func (m *MemoryStore) ListProducts() ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.productIDs))
	for _, id := range m.productIDs {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteProduct(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

// carts

func (m *MemoryStore) GetCart(identity domain.CartIdentity) ([]domain.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[identity.Key()]
	if !ok {
		return []domain.CartItem{}, nil
	}
	return copyItems(cart.items), nil
}

func (m *MemoryStore) AddItem(identity domain.CartIdentity, item domain.NewCartItem) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[identity.Key()]
	if !ok {
		cart = &memCart{id: uuid.NewString()}
		m.carts[identity.Key()] = cart
	}
	for i := range cart.items {
		if cart.items[i].ProductID == item.ProductID {
			cart.items[i].Quantity += item.Quantity
			return copyItems(cart.items), nil
		}
	}
	cart.items = append(cart.items, domain.CartItem{
		ID:        uuid.NewString(),
		CartID:    cart.id,
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Image:     item.Image,
		Quantity:  item.Quantity,
		AddedAt:   time.Now().UTC(),
	})
	return copyItems(cart.items), nil
}

func (m *MemoryStore) UpdateItemQuantity(identity domain.CartIdentity, itemID string, quantity int) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[identity.Key()]
	if !ok {
		return nil, ErrItemNotFound
	}
	for i := range cart.items {
		if cart.items[i].ID == itemID {
			cart.items[i].Quantity = quantity
			return copyItems(cart.items), nil
		}
	}
	return nil, ErrItemNotFound
}

func (m *MemoryStore) RemoveItem(identity domain.CartIdentity, itemID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[identity.Key()]
	if !ok {
		return []domain.CartItem{}, nil
	}
	kept := cart.items[:0]
	for _, item := range cart.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	cart.items = kept
	return copyItems(cart.items), nil
}

func (m *MemoryStore) ClearCart(identity domain.CartIdentity) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart, ok := m.carts[identity.Key()]; ok {
		cart.items = nil
	}
	return []domain.CartItem{}, nil
}

func copyItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
