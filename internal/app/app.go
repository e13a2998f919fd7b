package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"orbitshop/pkg/auth"
	"orbitshop/pkg/domain"
	"orbitshop/pkg/store"
)

// Session strategies supported by Config.SessionStrategy.
const (
	SessionStrategyRedis = "redis"
	SessionStrategyJWT   = "jwt"
)

const minPasswordLength = 6

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	SessionStrategy string
	SessionTTL      time.Duration
	JWTSecret       string

	// Pre-built dependencies override the defaults above (used by tests).
	Store         store.Store
	Carts         store.CartStore
	AdminSessions store.SessionStore
	UserSessions  store.SessionStore
}

// App is the storefront core: credential checks, session resolution for the
// two principal kinds, the cart engine, and the product catalog.
type App struct {
	store         store.Store
	carts         store.CartStore
	demo          *store.MemoryStore
	adminSessions store.SessionStore
	userSessions  store.SessionStore
}

// New constructs the application with database storage and session stores.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.SessionStrategy == "" {
		cfg.SessionStrategy = SessionStrategyRedis
	}

	dataStore := cfg.Store
	carts := cfg.Carts
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		dataStore = gormStore
		if carts == nil {
			carts = gormStore
		}
	}
	if carts == nil {
		cartStore, ok := dataStore.(store.CartStore)
		if !ok {
			return nil, fmt.Errorf("cart store required")
		}
		carts = cartStore
	}

	adminSessions := cfg.AdminSessions
	userSessions := cfg.UserSessions
	if adminSessions == nil || userSessions == nil {
		built, err := buildSessionStores(cfg)
		if err != nil {
			return nil, err
		}
		if adminSessions == nil {
			adminSessions = built[domain.KindAdmin]
		}
		if userSessions == nil {
			userSessions = built[domain.KindUser]
		}
	}

	return &App{
		store:         dataStore,
		carts:         carts,
		demo:          store.NewMemoryStore(),
		adminSessions: adminSessions,
		userSessions:  userSessions,
	}, nil
}

func buildSessionStores(cfg Config) (map[domain.PrincipalKind]store.SessionStore, error) {
	out := make(map[domain.PrincipalKind]store.SessionStore, 2)
	switch cfg.SessionStrategy {
	case SessionStrategyRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for redis session strategy")
		}
		for _, kind := range []domain.PrincipalKind{domain.KindAdmin, domain.KindUser} {
			out[kind] = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, kind, cfg.SessionTTL)
		}
	case SessionStrategyJWT:
		var revoker store.TokenRevoker
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		}
		for _, kind := range []domain.PrincipalKind{domain.KindAdmin, domain.KindUser} {
			jwtStore, err := store.NewJWTSessionStore(cfg.JWTSecret, kind, cfg.SessionTTL, revoker)
			if err != nil {
				return nil, fmt.Errorf("init jwt session store: %w", err)
			}
			out[kind] = jwtStore
		}
	default:
		return nil, fmt.Errorf("unknown session strategy %q", cfg.SessionStrategy)
	}
	return out, nil
}

// RegisterInput carries the user registration form.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// RegisterUser creates a shop user account. It does not log the user in.
func (a *App) RegisterUser(in RegisterInput) (domain.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return domain.User{}, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return domain.User{}, ErrPasswordsDoNotMatch
	}
	if len(in.Password) < minPasswordLength {
		return domain.User{}, ErrPasswordTooShort
	}
	exists, err := a.store.HasUserEmail(in.Email)
	if err != nil {
		return domain.User{}, storeFailure("check email", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, storeFailure("save user", err)
	}
	return user, nil
}

// RegisterAdmin creates an admin account. There is no public route for this;
// it serves bootstrap seeding and operations tooling.
func (a *App) RegisterAdmin(name, email, password string) (domain.Admin, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return domain.Admin{}, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return domain.Admin{}, ErrPasswordTooShort
	}
	if _, exists, err := a.store.GetAdminByEmail(email); err != nil {
		return domain.Admin{}, storeFailure("check admin email", err)
	} else if exists {
		return domain.Admin{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	admin := domain.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveAdmin(admin); err != nil {
		return domain.Admin{}, storeFailure("save admin", err)
	}
	return admin, nil
}

// LoginUser validates shop-user credentials and issues a session token.
func (a *App) LoginUser(email, password string) (domain.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, "", ErrMissingFields
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", storeFailure("fetch user", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.userSessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", storeFailure("issue user session", err)
	}
	return user, token, nil
}

// LoginAdmin validates admin credentials and issues a session token in the
// admin namespace.
func (a *App) LoginAdmin(email, password string) (domain.Admin, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Admin{}, "", ErrMissingFields
	}
	admin, ok, err := a.store.GetAdminByEmail(email)
	if err != nil {
		return domain.Admin{}, "", storeFailure("fetch admin", err)
	}
	if !ok || !auth.CheckPassword(password, admin.PasswordHash) {
		return domain.Admin{}, "", ErrInvalidCredentials
	}
	token, err := a.adminSessions.NewSession(admin.ID)
	if err != nil {
		return domain.Admin{}, "", storeFailure("issue admin session", err)
	}
	return admin, token, nil
}

// UserFromToken resolves a shop-user session token to the current user row.
// The principal is always reloaded by id; nothing embedded in the token is
// trusted beyond the id itself. Absence of a session is not an error.
func (a *App) UserFromToken(token string) (domain.User, bool, error) {
	id, ok, err := a.userSessions.GetPrincipalIDByToken(token)
	if err != nil {
		return domain.User{}, false, storeFailure("resolve user session", err)
	}
	if !ok {
		return domain.User{}, false, nil
	}
	user, found, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, false, storeFailure("fetch user", err)
	}
	return user, found, nil
}

// AdminFromToken resolves an admin session token to the current admin row.
func (a *App) AdminFromToken(token string) (domain.Admin, bool, error) {
	id, ok, err := a.adminSessions.GetPrincipalIDByToken(token)
	if err != nil {
		return domain.Admin{}, false, storeFailure("resolve admin session", err)
	}
	if !ok {
		return domain.Admin{}, false, nil
	}
	admin, found, err := a.store.GetAdminByID(id)
	if err != nil {
		return domain.Admin{}, false, storeFailure("fetch admin", err)
	}
	return admin, found, nil
}

// LogoutUser invalidates a shop-user session token.
func (a *App) LogoutUser(token string) error {
	if token == "" {
		return nil
	}
	if err := a.userSessions.DeleteSession(token); err != nil {
		return storeFailure("delete user session", err)
	}
	return nil
}

// LogoutAdmin invalidates an admin session token.
func (a *App) LogoutAdmin(token string) error {
	if token == "" {
		return nil
	}
	if err := a.adminSessions.DeleteSession(token); err != nil {
		return storeFailure("delete admin session", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// storeFailure tags an infrastructure error so the boundary can map it to a
// 503 while keeping the underlying cause in the message.
func storeFailure(action string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, action, err)
}
