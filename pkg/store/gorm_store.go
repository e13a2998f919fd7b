package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"orbitshop/pkg/domain"
)

const migrateLockID int64 = 82218221

// opTimeout bounds every store call so a stuck database surfaces as an error
// instead of hanging the request.
const opTimeout = 5 * time.Second

// GormStore implements Store and CartStore using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent instances do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&AdminModel{},
			&UserModel{},
			&ProductModel{},
			&CartModel{},
			&CartItemModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func (s *GormStore) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// admins

func (s *GormStore) SaveAdmin(a domain.Admin) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	model := adminToModel(a)
	return s.db.WithContext(ctx).Save(&model).Error
}

func (s *GormStore) GetAdminByEmail(email string) (domain.Admin, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var model AdminModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Admin{}, false, nil
	}
	if err != nil {
		return domain.Admin{}, false, err
	}
	return adminToDomain(model), true, nil
}

func (s *GormStore) GetAdminByID(id string) (domain.Admin, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var model AdminModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Admin{}, false, nil
	}
	if err != nil {
		return domain.Admin{}, false, err
	}
	return adminToDomain(model), true, nil
}

// users

func (s *GormStore) SaveUser(u domain.User) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	model := userToModel(u)
	return s.db.WithContext(ctx).Save(&model).Error
}

func (s *GormStore) HasUserEmail(email string) (bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var count int64
	if err := s.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var model UserModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return userToDomain(model), true, nil
}

func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var model UserModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return userToDomain(model), true, nil
}

// products

func (s *GormStore) SaveProduct(p domain.Product) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	model, err := productToModel(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&model).Error
}

func (s *GormStore) GetProduct(id string) (domain.Product, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var model ProductModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, err
	}
	return productToDomain(model), true, nil
}

func (s *GormStore) ListProducts() ([]domain.Product, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var models []ProductModel
	if err := s.db.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(models))
	for _, m := range models {
		out = append(out, productToDomain(m))
	}
	return out, nil
}

func (s *GormStore) DeleteProduct(id string) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&ProductModel{}).Error
}

// carts

func (s *GormStore) GetCart(identity domain.CartIdentity) ([]domain.CartItem, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var cart CartModel
	err := cartScope(s.db.WithContext(ctx), identity).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.listItems(s.db.WithContext(ctx), cart.ID)
}

func (s *GormStore) AddItem(identity domain.CartIdentity, item domain.NewCartItem) ([]domain.CartItem, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var items []domain.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.lockOrCreateCart(tx, identity)
		if err != nil {
			return err
		}
		var existing CartItemModel
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, item.ProductID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := CartItemModel{
				ID:        uuid.NewString(),
				CartID:    cart.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Image:     item.Image,
				Quantity:  item.Quantity,
				AddedAt:   time.Now().UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert cart item: %w", err)
			}
		case err != nil:
			return fmt.Errorf("fetch cart item: %w", err)
		default:
			existing.Quantity += item.Quantity
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		}
		items, err = s.listItems(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) UpdateItemQuantity(identity domain.CartIdentity, itemID string, quantity int) ([]domain.CartItem, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var items []domain.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, ok, err := s.lockCart(tx, identity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrItemNotFound
		}
		res := tx.Model(&CartItemModel{}).
			Where("id = ? AND cart_id = ?", itemID, cart.ID).
			Update("quantity", quantity)
		if res.Error != nil {
			return fmt.Errorf("update quantity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}
		items, err = s.listItems(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) RemoveItem(identity domain.CartIdentity, itemID string) ([]domain.CartItem, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	var items []domain.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, ok, err := s.lockCart(tx, identity)
		if err != nil {
			return err
		}
		if !ok {
			items = []domain.CartItem{}
			return nil
		}
		if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&CartItemModel{}).Error; err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		items, err = s.listItems(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) ClearCart(identity domain.CartIdentity) ([]domain.CartItem, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, ok, err := s.lockCart(tx, identity)
		if err != nil || !ok {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Delete(&CartItemModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return []domain.CartItem{}, nil
}

// lockCart selects the identity's cart row FOR UPDATE, serializing concurrent
// mutations of the same cart.
func (s *GormStore) lockCart(tx *gorm.DB, identity domain.CartIdentity) (CartModel, bool, error) {
	var cart CartModel
	err := cartScope(tx.Clauses(clause.Locking{Strength: "UPDATE"}), identity).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CartModel{}, false, nil
	}
	if err != nil {
		return CartModel{}, false, fmt.Errorf("fetch cart: %w", err)
	}
	return cart, true, nil
}

func (s *GormStore) lockOrCreateCart(tx *gorm.DB, identity domain.CartIdentity) (CartModel, error) {
	cart, ok, err := s.lockCart(tx, identity)
	if err != nil {
		return CartModel{}, err
	}
	if ok {
		return cart, nil
	}
	now := time.Now().UTC()
	cart = CartModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if identity.UserID != "" {
		uid := identity.UserID
		cart.UserID = &uid
	} else {
		sid := identity.SessionID
		cart.SessionID = &sid
	}
	res := insertCart(tx, &cart)
	if res.Error != nil {
		return CartModel{}, fmt.Errorf("create cart: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the insert race; the winner has committed, re-read under lock.
		existing, ok, err := s.lockCart(tx, identity)
		if err != nil {
			return CartModel{}, err
		}
		if !ok {
			return CartModel{}, fmt.Errorf("create cart: conflicting insert for %s not visible", identity.Key())
		}
		return existing, nil
	}
	return cart, nil
}

// insertCart inserts with ON CONFLICT DO NOTHING so a concurrent request
// creating the same identity's cart cannot abort the surrounding transaction.
// A plain INSERT would poison the transaction on the unique-index violation
// and make any in-transaction re-read impossible. Callers must check
// RowsAffected to learn whether they won the insert.
func insertCart(tx *gorm.DB, cart *CartModel) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(cart)
}

func cartScope(tx *gorm.DB, identity domain.CartIdentity) *gorm.DB {
	if identity.UserID != "" {
		return tx.Where("user_id = ?", identity.UserID)
	}
	return tx.Where("session_id = ?", identity.SessionID)
}

func (s *GormStore) listItems(tx *gorm.DB, cartID string) ([]domain.CartItem, error) {
	var models []CartItemModel
	if err := tx.Where("cart_id = ?", cartID).Order("added_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	items := make([]domain.CartItem, 0, len(models))
	for _, m := range models {
		items = append(items, cartItemToDomain(m))
	}
	return items, nil
}

// conversions

func adminToModel(a domain.Admin) AdminModel {
	return AdminModel{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func adminToDomain(m AdminModel) domain.Admin {
	return domain.Admin{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userToDomain(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func productToModel(p domain.Product) (ProductModel, error) {
	model := ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if len(p.Attributes) > 0 {
		raw, err := json.Marshal(p.Attributes)
		if err != nil {
			return ProductModel{}, fmt.Errorf("encode product attributes: %w", err)
		}
		model.Attributes = raw
	}
	return model, nil
}

func productToDomain(m ProductModel) domain.Product {
	p := domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Image:       m.Image,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.Attributes) > 0 {
		// Attributes written by this store are always a flat string map.
		_ = json.Unmarshal(m.Attributes, &p.Attributes)
	}
	return p
}

func cartItemToDomain(m CartItemModel) domain.CartItem {
	return domain.CartItem{
		ID:        m.ID,
		CartID:    m.CartID,
		ProductID: m.ProductID,
		Name:      m.Name,
		Price:     m.Price,
		Image:     m.Image,
		Quantity:  m.Quantity,
		AddedAt:   m.AddedAt,
	}
}
