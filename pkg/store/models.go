package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Table names follow the storefront schema
// rather than GORM's struct-derived defaults.

type AdminModel struct {
	ID           string    `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (AdminModel) TableName() string { return "admins" }

type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type ProductModel struct {
	ID          string  `gorm:"primaryKey"`
	Name        string  `gorm:"not null"`
	Description string  `gorm:"type:text"`
	Price       float64 `gorm:"not null"`
	Stock       int     `gorm:"not null"`
	Image       string
	Attributes  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time
}

func (ProductModel) TableName() string { return "products" }

// CartModel holds exactly one of UserID/SessionID. The unique indexes enforce
// at most one active cart per identity.
type CartModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    *string   `gorm:"uniqueIndex"`
	SessionID *string   `gorm:"uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

func (CartModel) TableName() string { return "carts" }

type CartItemModel struct {
	ID        string    `gorm:"primaryKey"`
	CartID    string    `gorm:"index;not null"`
	ProductID string    `gorm:"index;not null"`
	Name      string    `gorm:"not null"`
	Price     float64   `gorm:"not null"`
	Image     string
	Quantity  int       `gorm:"not null"`
	AddedAt   time.Time `gorm:"not null"`
}

func (CartItemModel) TableName() string { return "cart_items" }
