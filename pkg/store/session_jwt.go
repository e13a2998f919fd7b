package store

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"orbitshop/internal/util"
	"orbitshop/pkg/domain"
)

const jwtIssuer = "orbitshop"

var jwtLeeway = 30 * time.Second

// JWTSessionStore issues and validates stateless HS256 session tokens for one
// principal kind. The kind travels as a claim and is checked on every verify,
// so an admin token presented to the user store (or vice versa) never
// resolves. An optional TokenRevoker makes logout effective before expiry.
type JWTSessionStore struct {
	secret  []byte
	kind    domain.PrincipalKind
	ttl     time.Duration
	revoker TokenRevoker
}

type sessionClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// NewJWTSessionStore builds an HS256 session store for one kind.
func NewJWTSessionStore(secret string, kind domain.PrincipalKind, ttl time.Duration, revoker TokenRevoker) (*JWTSessionStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret required")
	}
	return &JWTSessionStore{
		secret:  []byte(secret),
		kind:    kind,
		ttl:     ttl,
		revoker: revoker,
	}, nil
}

// NewSession creates a signed JWT bound to the principal ID and kind.
func (s *JWTSessionStore) NewSession(principalID string) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Kind: string(s.kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        util.NewID(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// GetPrincipalIDByToken validates a JWT and returns the subject. Malformed,
// expired, wrong-kind, and revoked tokens all resolve to not-found without an
// error; only revoker IO failures surface as errors.
func (s *JWTSessionStore) GetPrincipalIDByToken(token string) (string, bool, error) {
	claims, ok := s.parseAndVerify(token)
	if !ok {
		return "", false, nil
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(claims.ID)
		if err != nil {
			return "", false, err
		}
		if revoked {
			return "", false, nil
		}
	}
	return claims.Subject, true, nil
}

// DeleteSession revokes the token until it expires. Without a revoker the
// token stays valid until expiry and only the cookie removal logs out.
func (s *JWTSessionStore) DeleteSession(token string) error {
	if s.revoker == nil {
		return nil
	}
	claims, ok := s.parseAndVerify(token)
	if !ok || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (s *JWTSessionStore) parseAndVerify(token string) (sessionClaims, bool) {
	claims := sessionClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, false
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(jwtLeeway),
	)
	if err != nil || !parsed.Valid {
		return claims, false
	}
	if claims.Kind != string(s.kind) {
		return claims, false
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" {
		return claims, false
	}
	return claims, true
}
