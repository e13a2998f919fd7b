package store

import (
	"sync"
	"time"

	"orbitshop/internal/util"
)

// MemorySessionStore keeps session tokens in-process. Test use only; a real
// deployment uses the redis or jwt stores so sessions survive restarts.
type MemorySessionStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	sess map[string]memorySession
}

type memorySession struct {
	principalID string
	expiresAt   time.Time
}

// NewMemorySessionStore initializes an empty in-memory session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:  ttl,
		sess: make(map[string]memorySession),
	}
}

func (s *MemorySessionStore) NewSession(principalID string) (string, error) {
	token := util.NewID()
	s.mu.Lock()
	s.sess[token] = memorySession{
		principalID: principalID,
		expiresAt:   time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
	return token, nil
}

func (s *MemorySessionStore) GetPrincipalIDByToken(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sess[token]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sess, token)
		return "", false, nil
	}
	return entry.principalID, true, nil
}

func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	delete(s.sess, token)
	s.mu.Unlock()
	return nil
}
