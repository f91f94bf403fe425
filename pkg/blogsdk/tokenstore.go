package blogsdk

import (
	"context"
	"sync"
)

// TokenStore is the session provider the Client reads on every request.
// Save is the mutate-on-refresh callback: the Client calls it with the new
// pair after a successful refresh. Implementations must be safe for concurrent
// use; writes are whole-value overwrites, so last write wins.
type TokenStore interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps tokens in process memory. Useful for tests and
// short-lived tools.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

// NewMemoryTokenStore returns a store seeded with t.
func NewMemoryTokenStore(t Tokens) *MemoryTokenStore {
	return &MemoryTokenStore{tokens: t}
}

func (m *MemoryTokenStore) Load(_ context.Context) (Tokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

func (m *MemoryTokenStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}
