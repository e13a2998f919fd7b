package server

import (
	"net/http"
	"strings"

	"orbitshop/internal/app"
	"orbitshop/pkg/domain"
)

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := s.app.ListProducts()
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": products,
			"count": len(products),
		})
	case http.MethodPost:
		s.adminOnly(s.handleCreateProduct)(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, _ domain.Admin) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	product, err := s.app.CreateProduct(req.toInput())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleProductByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/products/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		product, err := s.app.GetProduct(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodPut:
		s.adminOnly(func(w http.ResponseWriter, r *http.Request, _ domain.Admin) {
			var req productRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			product, err := s.app.UpdateProduct(id, req.toInput())
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, product)
		})(w, r)
	case http.MethodDelete:
		s.adminOnly(func(w http.ResponseWriter, r *http.Request, _ domain.Admin) {
			if err := s.app.DeleteProduct(id); err != nil {
				writeAppError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})(w, r)
	default:
		methodNotAllowed(w)
	}
}

type productRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Image       string            `json:"image"`
	Attributes  map[string]string `json:"attributes"`
}

func (req productRequest) toInput() app.ProductInput {
	return app.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
		Attributes:  req.Attributes,
	}
}
