package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Manager holds one Store per user. Carts are process-local and lost on
// restart.
type Manager struct {
	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{stores: make(map[uuid.UUID]*Store)}
}

// StoreFor returns the user's cart store, creating it on first access.
func (m *Manager) StoreFor(userID uuid.UUID) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[userID]
	if !ok {
		store = NewStore()
		m.stores[userID] = store
	}
	return store
}

// Drop discards the user's cart store entirely, e.g. on logout.
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, userID)
}
