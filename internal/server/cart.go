package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"orbitshop/internal/util"
	"orbitshop/pkg/domain"
)

// handleCartSession issues the anonymous cart cookie. Shoppers without an
// account get a stable random id so their cart survives page loads; callers
// that already have one keep it.
func (s *Server) handleCartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sessionID, ok := cookieValue(r, cartSessionCookie)
	if !ok {
		sessionID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     cartSessionCookie,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   int(cartSessionMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}

// cartIdentity resolves who owns the cart for this request. An explicit
// user_id/session_id from the body or query wins, so API clients that manage
// their own identity are never diverted into a cookie's cart. Only when no
// explicit identity is supplied does the server fall back to the logged-in
// user, then to the anonymous cart cookie. A failed user-session lookup is
// treated as no session here: the cart must stay usable while the session
// backend is down, unlike the /session endpoints which surface the failure.
func (s *Server) cartIdentity(r *http.Request, explicit domain.CartIdentity) domain.CartIdentity {
	identity := explicit
	if identity.UserID == "" {
		identity.UserID = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	if identity.SessionID == "" {
		identity.SessionID = strings.TrimSpace(r.URL.Query().Get("session_id"))
	}
	if !identity.IsZero() {
		return identity
	}
	user, ok, err := s.currentUser(r)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("user session unavailable, resolving cart anonymously", "err", err)
	} else if ok {
		identity.UserID = user.ID
		return identity
	}
	if sessionID, ok := cookieValue(r, cartSessionCookie); ok {
		identity.SessionID = sessionID
	}
	return identity
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	identity := s.cartIdentity(r, domain.CartIdentity{})
	switch r.Method {
	case http.MethodGet:
		view, err := s.app.ViewCart(identity)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		view, err := s.app.ClearCart(identity)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	identity := s.cartIdentity(r, domain.CartIdentity{UserID: req.UserID, SessionID: req.SessionID})
	view, err := s.app.AddCartItem(identity, domain.NewCartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCartItemByID(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimPrefix(r.URL.Path, "/cart/items/")
	if itemID == "" || strings.Contains(itemID, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var req updateCartItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		identity := s.cartIdentity(r, domain.CartIdentity{UserID: req.UserID, SessionID: req.SessionID})
		view, err := s.app.UpdateCartItemQuantity(identity, itemID, req.Quantity)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		identity := s.cartIdentity(r, domain.CartIdentity{})
		view, err := s.app.RemoveCartItem(identity, itemID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	default:
		methodNotAllowed(w)
	}
}

// Cart request bodies use the storefront's snake_case field names.
type addCartItemRequest struct {
	UserID    string  `json:"user_id"`
	SessionID string  `json:"session_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

type updateCartItemRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Quantity  int    `json:"quantity"`
}
