package util

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestIDKeepsEdgeProxyID(t *testing.T) {
	const incoming = "edge-7f3a"
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := RequestIDFromRequest(r); got != incoming {
			t.Fatalf("request id in context = %q, want %q", got, incoming)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("X-Request-Id", incoming)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != incoming {
		t.Fatalf("response request id = %q, want %q", got, incoming)
	}
}

func TestWithRequestIDGeneratesWhenMissing(t *testing.T) {
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := RequestIDFromRequest(r); got == "" {
			t.Fatal("expected generated request id in context")
		}
		// The request-scoped logger must be wired up too, not the default.
		if LoggerFromContext(r.Context()) == slog.Default() {
			t.Fatal("expected a request-scoped logger in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got == "" {
		t.Fatal("expected generated request id header")
	}
}
