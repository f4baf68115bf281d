package membership

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and embedded use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Membership
}

// NewMemoryStore creates an empty in-memory membership store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Membership)}
}

func memberKey(userID string, ref Reference) string {
	ref = ref.Canonical()
	return userID + "|" + string(ref.Type) + "|" + ref.ID
}

// Get returns a deep copy of the stored record, or (nil, nil) when
// absent.
func (s *MemoryStore) Get(_ context.Context, userID string, ref Reference) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.records[memberKey(userID, ref)]
	if !ok {
		return nil, nil
	}
	return m.Clone(), nil
}

// Put stores a deep copy of the record.
func (s *MemoryStore) Put(_ context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := m.Clone()
	c.Reference = c.Reference.Canonical()
	s.records[memberKey(c.UserID, c.Reference)] = c
	return nil
}
