package app

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"orbitshop/pkg/domain"
)

// ProductInput carries the admin product form.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Image       string
	Attributes  map[string]string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.Price < 0 || in.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// ListProducts returns the full catalog.
func (a *App) ListProducts() ([]domain.Product, error) {
	products, err := a.store.ListProducts()
	if err != nil {
		return nil, storeFailure("list products", err)
	}
	return products, nil
}

// GetProduct returns one product by id.
func (a *App) GetProduct(id string) (domain.Product, error) {
	product, ok, err := a.store.GetProduct(id)
	if err != nil {
		return domain.Product{}, storeFailure("fetch product", err)
	}
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return product, nil
}

// CreateProduct adds a catalog entry (admin only at the boundary).
func (a *App) CreateProduct(in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Image:       in.Image,
		Attributes:  in.Attributes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveProduct(product); err != nil {
		return domain.Product{}, storeFailure("save product", err)
	}
	return product, nil
}

// UpdateProduct replaces the mutable fields of an existing product.
func (a *App) UpdateProduct(id string, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	product, ok, err := a.store.GetProduct(id)
	if err != nil {
		return domain.Product{}, storeFailure("fetch product", err)
	}
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock
	product.Image = in.Image
	product.Attributes = in.Attributes
	product.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveProduct(product); err != nil {
		return domain.Product{}, storeFailure("update product", err)
	}
	return product, nil
}

// DeleteProduct removes a catalog entry; deleting an unknown id is a no-op.
func (a *App) DeleteProduct(id string) error {
	if err := a.store.DeleteProduct(id); err != nil {
		return storeFailure("delete product", err)
	}
	return nil
}
