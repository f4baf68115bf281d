package role

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/warden/pkg/perm"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE roles (
			id TEXT PRIMARY KEY,
			scope TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_default INTEGER NOT NULL DEFAULT 0,
			is_system INTEGER NOT NULL DEFAULT 0,
			permissions TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(scope, name)
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	return db
}

func TestPostgresStoreGetAbsent(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))

	got, err := store.Get(context.Background(), perm.ScopeAPI, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresStorePutGetRoundTrip(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)
	r := &Role{
		ID:          uuid.NewString(),
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Description: "writes docs",
		Permissions: perm.Table{"DOCUMENTATION": {perm.ActionCreate, perm.ActionUpdate}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Put(context.Background(), r))

	got, err := store.Get(context.Background(), perm.ScopeAPI, "WRITER")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Description, got.Description)
	assert.ElementsMatch(t, []perm.Action{perm.ActionCreate, perm.ActionUpdate}, got.Permissions["DOCUMENTATION"])
}

func TestPostgresStorePutReplacesOnConflict(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)
	r := &Role{
		ID:          uuid.NewString(),
		Scope:       perm.ScopeAPI,
		Name:        "WRITER",
		Permissions: perm.Table{"DOCUMENTATION": {perm.ActionUpdate}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Put(context.Background(), r))

	r.Permissions = perm.Table{"DOCUMENTATION": {perm.ActionRead}}
	r.System = true
	r.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.Put(context.Background(), r))

	got, err := store.Get(context.Background(), perm.ScopeAPI, "WRITER")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.System)
	assert.ElementsMatch(t, []perm.Action{perm.ActionRead}, got.Permissions["DOCUMENTATION"])
}

func TestPostgresStoreList(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)
	for _, entry := range []struct {
		scope perm.Scope
		name  string
	}{
		{perm.ScopePortal, "VIEWER"},
		{perm.ScopeAPI, "WRITER"},
		{perm.ScopeAPI, "READER"},
	} {
		require.NoError(t, store.Put(context.Background(), &Role{
			ID:          uuid.NewString(),
			Scope:       entry.scope,
			Name:        entry.name,
			Permissions: perm.Table{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}))
	}

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "READER", all[0].Name)
	assert.Equal(t, "WRITER", all[1].Name)
	assert.Equal(t, perm.ScopePortal, all[2].Scope)
}

func TestPostgresStoreGetWrapsDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	driverErr := errors.New("connection refused")
	mock.ExpectQuery("SELECT id, scope, name").WillReturnError(driverErr)

	store := NewPostgresStore(db)
	_, err = store.Get(context.Background(), perm.ScopeAPI, "WRITER")
	require.Error(t, err)
	assert.ErrorIs(t, err, driverErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcilerAgainstSQLStore(t *testing.T) {
	store := NewPostgresStore(setupTestDB(t))
	reconciler := NewReconciler(store, DefaultBaseline(), nil, nil)
	require.NoError(t, reconciler.Reconcile(context.Background()))
	require.NoError(t, reconciler.Reconcile(context.Background()))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
