package role

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/perm"
)

func TestRegistryCreateAndFind(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	created, err := registry.Create(context.Background(), NewRole{
		Scope:       perm.ScopeAPI,
		Name:        "doc writer",
		Description: "writes docs",
		Permissions: perm.Table{
			"DOCUMENTATION": {perm.ActionCreate, perm.ActionUpdate},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "DOC_WRITER", created.Name)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.System)

	found, err := registry.FindByScopeAndName(context.Background(), perm.ScopeAPI, "DOC_WRITER")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.ElementsMatch(t, []perm.Action{perm.ActionCreate, perm.ActionUpdate}, found.Permissions["DOCUMENTATION"])
}

func TestRegistryFindAbsentIsNilNotError(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	found, err := registry.FindByScopeAndName(context.Background(), perm.ScopeAPI, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRegistryCreateDuplicateFails(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)
	input := NewRole{
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Permissions: perm.Table{"DOCUMENTATION": {perm.ActionUpdate}},
	}

	_, err := registry.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = registry.Create(context.Background(), input)
	var exists *ExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "WRITER", exists.Name)
}

func TestRegistryCreateRejectsReservedNames(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	for _, name := range []string{"ADMIN", "admin", "PRIMARY_OWNER", "primary owner"} {
		_, err := registry.Create(context.Background(), NewRole{
			Scope:       perm.ScopeAPI,
			Name:        name,
			Permissions: perm.Table{"DOCUMENTATION": {perm.ActionRead}},
		})
		var reserved *ReservedNameError
		require.ErrorAs(t, err, &reserved, "name %q", name)
	}
}

func TestRegistryCreateRejectsBadActionSymbol(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	_, err := registry.Create(context.Background(), NewRole{
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Permissions: perm.Table{"DOCUMENTATION": {perm.Action('X')}},
	})
	require.Error(t, err)
}

func TestRegistryCreateRejectsUnknownPermissionKey(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	_, err := registry.Create(context.Background(), NewRole{
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Permissions: perm.Table{"TELEPORTATION": {perm.ActionRead}},
	})
	require.Error(t, err)
}

func TestRegistryUpdate(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	_, err := registry.Create(context.Background(), NewRole{
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Permissions: perm.Table{"DOCUMENTATION": {perm.ActionUpdate}},
	})
	require.NoError(t, err)

	updated, err := registry.Update(context.Background(), UpdateRole{
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Description: "now with plans",
		Permissions: perm.Table{
			"DOCUMENTATION": {perm.ActionUpdate},
			"PLAN":          {perm.ActionRead},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "now with plans", updated.Description)
	assert.ElementsMatch(t, []perm.Action{perm.ActionRead}, updated.Permissions["PLAN"])
}

func TestRegistryUpdateAbsentFails(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)

	_, err := registry.Update(context.Background(), UpdateRole{
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Permissions: perm.Table{"DOCUMENTATION": {perm.ActionUpdate}},
	})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "WRITER", notFound.Name)
}

func TestRegistryUpdateSystemRoleFails(t *testing.T) {
	store := NewMemoryStore()
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)
	require.NoError(t, reconciler.Reconcile(context.Background()))

	registry := NewRegistry(store, nil, nil)
	_, err := registry.Update(context.Background(), UpdateRole{
		Scope: perm.ScopeManagement,
		// Name normalization rejects ADMIN before storage is touched.
		Name:        "ADMIN",
		Permissions: perm.Table{"SETTINGS": {perm.ActionRead}},
	})
	var reserved *ReservedNameError
	require.ErrorAs(t, err, &reserved)
}

func TestRegistryFindAll(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), nil, nil)
	for _, name := range []string{"B_ROLE", "A_ROLE"} {
		_, err := registry.Create(context.Background(), NewRole{
			Scope:       perm.ScopeAPI,
			Name:        name,
			Permissions: perm.Table{"DOCUMENTATION": {perm.ActionRead}},
		})
		require.NoError(t, err)
	}

	all, err := registry.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A_ROLE", all[0].Name)
	assert.Equal(t, "B_ROLE", all[1].Name)
}
