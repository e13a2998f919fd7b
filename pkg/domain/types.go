package domain

import "time"

// PrincipalKind distinguishes the two independent session namespaces.
// A token issued for one kind must never authorize actions of the other.
type PrincipalKind string

const (
	KindAdmin PrincipalKind = "admin"
	KindUser  PrincipalKind = "user"
)

// CartMode reports whether cart state is backed by the database or by the
// transient in-process fallback.
type CartMode string

const (
	CartModePersistent CartMode = "persistent"
	CartModeDemo       CartMode = "demo"
)

type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Image       string            `json:"image,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CartIdentity names the owner of a cart: a durable user id or an ephemeral
// anonymous session id. When both are present the user id wins.
type CartIdentity struct {
	UserID    string
	SessionID string
}

// IsZero reports whether no identity was supplied at all.
func (id CartIdentity) IsZero() bool {
	return id.UserID == "" && id.SessionID == ""
}

// Key returns the canonical grouping key for the identity.
func (id CartIdentity) Key() string {
	if id.UserID != "" {
		return "user:" + id.UserID
	}
	return "session:" + id.SessionID
}

type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cartId"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// NewCartItem is the caller-supplied payload for an add-to-cart operation.
type NewCartItem struct {
	ProductID string
	Name      string
	Price     float64
	Image     string
	Quantity  int
}

// CartView is the response shape for every cart operation. Total and
// ItemCount are always recomputed from Items, never carried over.
type CartView struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
	Mode      CartMode   `json:"mode"`
	Message   string     `json:"message,omitempty"`
}

// NewCartView builds a view from the current item list.
func NewCartView(items []CartItem, mode CartMode) CartView {
	if items == nil {
		items = []CartItem{}
	}
	view := CartView{Items: items, Mode: mode}
	for _, item := range items {
		view.Total += item.Price * float64(item.Quantity)
		view.ItemCount += item.Quantity
	}
	return view
}
