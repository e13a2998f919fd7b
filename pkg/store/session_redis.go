package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"orbitshop/internal/util"
	"orbitshop/pkg/domain"
)

const redisOpTimeout = 3 * time.Second

// RedisSessionStore keeps opaque session tokens in Redis with a TTL. Each
// instance serves exactly one principal kind; the kind is baked into the key
// prefix so admin and user tokens can never resolve against each other.
type RedisSessionStore struct {
	client *redis.Client
	kind   domain.PrincipalKind
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store for one kind.
func NewRedisSessionStore(addr, password string, kind domain.PrincipalKind, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		kind: kind,
		ttl:  ttl,
	}
}

// NewSession writes a token -> principal ID mapping with TTL.
func (s *RedisSessionStore) NewSession(principalID string) (string, error) {
	token := util.NewID()
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(token), principalID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetPrincipalIDByToken resolves a token to a principal ID. An unknown or
// expired token is not an error.
func (s *RedisSessionStore) GetPrincipalIDByToken(token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	val, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteSession removes a token mapping; deleting an unknown token is a no-op.
func (s *RedisSessionStore) DeleteSession(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func (s *RedisSessionStore) key(token string) string {
	return "sess:" + string(s.kind) + ":" + token
}
