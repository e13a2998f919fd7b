package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"orbitshop/internal/app"
	"orbitshop/internal/ratelimit"
	"orbitshop/internal/util"
	"orbitshop/pkg/domain"
	"orbitshop/pkg/store"
)

// Cookie names. Admin and shop-user sessions live in separate cookies so the
// two namespaces never mix; the cart cookie tracks anonymous shoppers.
const (
	adminCookie       = "admin_token"
	userCookie        = "user_token"
	cartSessionCookie = "cart_session"
)

const (
	maxBodyBytes      = 1 << 20
	cartSessionMaxAge = 30 * 24 * time.Hour
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App             *app.App
	SessionTTL      time.Duration
	SecureCookies   bool
	CORSOrigin      string
	TrustedProxies  *util.TrustedProxies
	LoginLimiter    *ratelimit.FixedWindowLimiter
	RegisterLimiter *ratelimit.FixedWindowLimiter
}

// Server exposes the storefront HTTP API.
type Server struct {
	app             *app.App
	sessionTTL      time.Duration
	secureCookies   bool
	corsOrigin      string
	trustedProxies  *util.TrustedProxies
	loginLimiter    *ratelimit.FixedWindowLimiter
	registerLimiter *ratelimit.FixedWindowLimiter
	mux             *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	s := &Server{
		app:             cfg.App,
		sessionTTL:      cfg.SessionTTL,
		secureCookies:   cfg.SecureCookies,
		corsOrigin:      cfg.CORSOrigin,
		trustedProxies:  cfg.TrustedProxies,
		loginLimiter:    cfg.LoginLimiter,
		registerLimiter: cfg.RegisterLimiter,
		mux:             http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	var handler http.Handler = s.mux
	handler = util.WithCORS(s.corsOrigin, handler)
	handler = util.WithSecurityHeaders(handler)
	handler = util.WithRequestLog(handler)
	handler = util.WithRequestID(handler)
	return handler
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// sessions
	s.mux.HandleFunc("/session/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/session/admin/logout", s.handleAdminLogout)
	s.mux.HandleFunc("/session/admin", s.handleAdminSession)
	s.mux.HandleFunc("/session/user/register", s.handleUserRegister)
	s.mux.HandleFunc("/session/user/login", s.handleUserLogin)
	s.mux.HandleFunc("/session/user/logout", s.handleUserLogout)
	s.mux.HandleFunc("/session/user", s.handleUserSession)
	s.mux.HandleFunc("/session/cart", s.handleCartSession)

	// cart
	s.mux.HandleFunc("/cart", s.handleCart)
	s.mux.HandleFunc("/cart/items", s.handleCartItems)
	s.mux.HandleFunc("/cart/items/", s.handleCartItemByID)

	// catalog
	s.mux.HandleFunc("/products", s.handleProducts)
	s.mux.HandleFunc("/products/", s.handleProductByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type adminHandler func(http.ResponseWriter, *http.Request, domain.Admin)

// adminOnly admits only requests carrying a valid admin session cookie. A user
// session is not a substitute; the two token namespaces are independent.
func (s *Server) adminOnly(next adminHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok, err := s.currentAdmin(r)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, admin)
	}
}

func (s *Server) currentAdmin(r *http.Request) (domain.Admin, bool, error) {
	token, ok := cookieValue(r, adminCookie)
	if !ok {
		return domain.Admin{}, false, nil
	}
	return s.app.AdminFromToken(token)
}

func (s *Server) currentUser(r *http.Request) (domain.User, bool, error) {
	token, ok := cookieValue(r, userCookie)
	if !ok {
		return domain.User{}, false, nil
	}
	return s.app.UserFromToken(token)
}

// session handlers
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.loginLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	admin, token, err := s.app.LoginAdmin(req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	s.setSessionCookie(w, adminCookie, token)
	writeJSON(w, http.StatusOK, map[string]any{"admin": admin})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if token, ok := cookieValue(r, adminCookie); ok {
		if err := s.app.LogoutAdmin(token); err != nil {
			writeAppError(w, err)
			return
		}
	}
	s.clearSessionCookie(w, adminCookie)
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminSession is a probe, not a guard: absence of a session answers
// with a null admin so callers can check state without forcing a login.
func (s *Server) handleAdminSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	admin, ok, err := s.currentAdmin(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"admin": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admin": admin})
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.registerLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many registration attempts, try again later")
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.RegisterUser(app.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.loginLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.LoginUser(req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	s.setSessionCookie(w, userCookie, token)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleUserLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if token, ok := cookieValue(r, userCookie); ok {
		if err := s.app.LogoutUser(token); err != nil {
			writeAppError(w, err)
			return
		}
	}
	s.clearSessionCookie(w, userCookie)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, ok, err := s.currentUser(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) allow(limiter *ratelimit.FixedWindowLimiter, r *http.Request) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(util.ClientIP(r, s.trustedProxies))
}

// cookie helpers
func (s *Server) setSessionCookie(w http.ResponseWriter, name, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// request/response shapes
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps application sentinels to HTTP statuses. Unknown errors
// become an opaque 500 so internals never leak.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists),
		errors.Is(err, app.ErrMissingFields),
		errors.Is(err, app.ErrPasswordsDoNotMatch),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, app.ErrCartIdentityRequired),
		errors.Is(err, app.ErrInvalidCartItem),
		errors.Is(err, app.ErrInvalidQuantity),
		errors.Is(err, app.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrProductNotFound), errors.Is(err, store.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
