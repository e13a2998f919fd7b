package store

import (
	"testing"
	"time"

	"orbitshop/pkg/domain"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func TestJWTSessionStoreRoundTrip(t *testing.T) {
	s, err := NewJWTSessionStore(testSecret, domain.KindUser, time.Hour, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	id, ok, err := s.GetPrincipalIDByToken(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !ok || id != "user-1" {
		t.Fatalf("unexpected resolution: ok=%v id=%q", ok, id)
	}
}

func TestJWTSessionStoreRejectsWrongKind(t *testing.T) {
	admins, err := NewJWTSessionStore(testSecret, domain.KindAdmin, time.Hour, nil)
	if err != nil {
		t.Fatalf("new admin store: %v", err)
	}
	users, err := NewJWTSessionStore(testSecret, domain.KindUser, time.Hour, nil)
	if err != nil {
		t.Fatalf("new user store: %v", err)
	}

	adminToken, err := admins.NewSession("admin-1")
	if err != nil {
		t.Fatalf("new admin session: %v", err)
	}
	// Same signing secret, different kind claim: must not cross-resolve.
	if _, ok, err := users.GetPrincipalIDByToken(adminToken); err != nil || ok {
		t.Fatalf("admin token must not verify as user: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreRejectsMalformedToken(t *testing.T) {
	s, err := NewJWTSessionStore(testSecret, domain.KindUser, time.Hour, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, token := range []string{"", "garbage", "a.b.c", "  "} {
		if _, ok, err := s.GetPrincipalIDByToken(token); err != nil || ok {
			t.Fatalf("malformed token %q: ok=%v err=%v", token, ok, err)
		}
	}
}

func TestJWTSessionStoreRejectsWrongSecret(t *testing.T) {
	signer, err := NewJWTSessionStore(testSecret, domain.KindUser, time.Hour, nil)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := NewJWTSessionStore("another-secret-entirely-0123456789", domain.KindUser, time.Hour, nil)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := signer.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := verifier.GetPrincipalIDByToken(token); err != nil || ok {
		t.Fatalf("forged token must not verify: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreExpiry(t *testing.T) {
	s, err := NewJWTSessionStore(testSecret, domain.KindUser, -2*time.Minute, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := s.GetPrincipalIDByToken(token); err != nil || ok {
		t.Fatalf("expired token must not resolve: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreDeleteRevokes(t *testing.T) {
	s, err := NewJWTSessionStore(testSecret, domain.KindUser, time.Hour, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetPrincipalIDByToken(token); err != nil || ok {
		t.Fatalf("revoked token must not resolve: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreRequiresSecret(t *testing.T) {
	if _, err := NewJWTSessionStore("  ", domain.KindUser, time.Hour, nil); err == nil {
		t.Fatal("expected constructor error for empty secret")
	}
}
