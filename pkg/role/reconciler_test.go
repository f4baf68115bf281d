package role

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/perm"
)

// countingStore wraps a Store and counts calls, so tests can assert
// the reconciler's exact storage access pattern.
type countingStore struct {
	Store
	gets   int
	puts   int
	getErr error
}

func (s *countingStore) Get(ctx context.Context, scope perm.Scope, name string) (*Role, error) {
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, scope, name)
}

func (s *countingStore) Put(ctx context.Context, r *Role) error {
	s.puts++
	return s.Store.Put(ctx, r)
}

func TestReconcileCreatesAllSystemRoles(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)

	require.NoError(t, reconciler.Reconcile(context.Background()))
	assert.Equal(t, 5, store.gets)
	assert.Equal(t, 5, store.puts)

	for _, want := range []struct {
		scope perm.Scope
		name  string
	}{
		{perm.ScopeManagement, SystemAdmin},
		{perm.ScopePortal, SystemAdmin},
		{perm.ScopeGroup, SystemAdmin},
		{perm.ScopeAPI, SystemPrimaryOwner},
		{perm.ScopeApplication, SystemPrimaryOwner},
	} {
		r, err := store.Store.Get(context.Background(), want.scope, want.name)
		require.NoError(t, err)
		require.NotNil(t, r, "%s_%s", want.scope, want.name)
		assert.True(t, r.System)
		assert.Equal(t, perm.FullCRUD(want.scope), r.Permissions)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)
	require.NoError(t, reconciler.Reconcile(context.Background()))

	store.gets, store.puts = 0, 0
	require.NoError(t, reconciler.Reconcile(context.Background()))

	// One lookup per built-in role, zero writes.
	assert.Equal(t, 5, store.gets)
	assert.Equal(t, 0, store.puts)
}

func TestReconcileRepairsDrift(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)
	require.NoError(t, reconciler.Reconcile(context.Background()))

	drifted, err := store.Store.Get(context.Background(), perm.ScopeManagement, SystemAdmin)
	require.NoError(t, err)
	drifted.Permissions = perm.Table{"SETTINGS": {perm.ActionRead}}
	require.NoError(t, store.Store.Put(context.Background(), drifted))

	store.gets, store.puts = 0, 0
	require.NoError(t, reconciler.Reconcile(context.Background()))

	// Exactly one repair write for the drifted role, none for the rest.
	assert.Equal(t, 5, store.gets)
	assert.Equal(t, 1, store.puts)

	repaired, err := store.Store.Get(context.Background(), perm.ScopeManagement, SystemAdmin)
	require.NoError(t, err)
	assert.Equal(t, perm.FullCRUD(perm.ScopeManagement), repaired.Permissions)
	assert.True(t, repaired.System)
}

func TestReconcileRepairsUnencodableStoredTable(t *testing.T) {
	store := NewMemoryStore()
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)
	require.NoError(t, reconciler.Reconcile(context.Background()))

	broken, err := store.Get(context.Background(), perm.ScopeAPI, SystemPrimaryOwner)
	require.NoError(t, err)
	broken.Permissions = perm.Table{"NOT_A_REAL_KEY": {perm.ActionRead}}
	require.NoError(t, store.Put(context.Background(), broken))

	require.NoError(t, reconciler.Reconcile(context.Background()))

	repaired, err := store.Get(context.Background(), perm.ScopeAPI, SystemPrimaryOwner)
	require.NoError(t, err)
	assert.Equal(t, perm.FullCRUD(perm.ScopeAPI), repaired.Permissions)
}

func TestReconcileStopsOnStorageFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := &countingStore{Store: NewMemoryStore(), getErr: storeErr}
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)

	err := reconciler.Reconcile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, store.gets)
}

func TestDefaultBaselineCoversFiveRoles(t *testing.T) {
	baseline := DefaultBaseline()
	require.Len(t, baseline.Entries, 5)
	for _, entry := range baseline.Entries {
		assert.True(t, IsSystemName(entry.Name))
		sig, err := perm.Signature(entry.Scope, entry.Permissions)
		require.NoError(t, err)
		assert.Positive(t, sig)
	}
}
