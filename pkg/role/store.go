package role

import (
	"context"

	"github.com/platinummonkey/warden/pkg/perm"
)

// Store is the persistence contract for role definitions. Lookups are
// keyed only; the engine never needs range scans beyond List.
//
// Get returns (nil, nil) when no role exists for the pair. Put
// creates or replaces the record wholesale; uniqueness of
// (scope, name) is the storage key itself.
type Store interface {
	Get(ctx context.Context, scope perm.Scope, name string) (*Role, error)
	Put(ctx context.Context, r *Role) error
	List(ctx context.Context) ([]Role, error)
}
