package role

import (
	"context"
	"sort"
	"sync"

	"github.com/platinummonkey/warden/pkg/perm"
)

// MemoryStore is an in-memory Store. It is the reference
// implementation used in tests and by embedders that do not need
// durable role storage.
type MemoryStore struct {
	mu    sync.RWMutex
	roles map[string]Role
}

// NewMemoryStore creates an empty in-memory role store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{roles: make(map[string]Role)}
}

func roleKey(scope perm.Scope, name string) string {
	return string(scope) + "_" + name
}

// Get returns the role for (scope, name), or (nil, nil) if absent.
func (s *MemoryStore) Get(_ context.Context, scope perm.Scope, name string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleKey(scope, name)]
	if !ok {
		return nil, nil
	}
	r.Permissions = r.Permissions.Clone()
	return &r, nil
}

// Put creates or replaces the role record.
func (s *MemoryStore) Put(_ context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *r
	stored.Permissions = r.Permissions.Clone()
	s.roles[roleKey(r.Scope, r.Name)] = stored
	return nil
}

// List returns all stored roles ordered by scope then name.
func (s *MemoryStore) List(_ context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		r.Permissions = r.Permissions.Clone()
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
