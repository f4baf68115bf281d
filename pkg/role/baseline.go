package role

import "github.com/platinummonkey/warden/pkg/perm"

// Baseline is the compiled-in catalog of system roles. It is an
// explicit, immutable configuration value passed to the Reconciler so
// the expected permission tables can be unit-tested without storage.
type Baseline struct {
	// Version increments whenever an entry's permission table changes,
	// so operators can correlate reconciliation repairs with releases.
	Version int
	Entries []BaselineEntry
}

// BaselineEntry is one system role and its expected permission table.
type BaselineEntry struct {
	Scope       perm.Scope
	Name        string
	Description string
	Permissions perm.Table
}

// DefaultBaseline returns the five built-in system roles: ADMIN for
// the MANAGEMENT, PORTAL and GROUP scopes, PRIMARY_OWNER for API and
// APPLICATION. Each grants full CRUD on every permission key of its
// scope.
func DefaultBaseline() Baseline {
	entry := func(scope perm.Scope, name string) BaselineEntry {
		return BaselineEntry{
			Scope:       scope,
			Name:        name,
			Description: "System role. Managed by Warden.",
			Permissions: perm.FullCRUD(scope),
		}
	}
	return Baseline{
		Version: 1,
		Entries: []BaselineEntry{
			entry(perm.ScopeManagement, SystemAdmin),
			entry(perm.ScopePortal, SystemAdmin),
			entry(perm.ScopeGroup, SystemAdmin),
			entry(perm.ScopeAPI, SystemPrimaryOwner),
			entry(perm.ScopeApplication, SystemPrimaryOwner),
		},
	}
}
