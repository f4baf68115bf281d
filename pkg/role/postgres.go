package role

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/warden/pkg/perm"
)

// PostgresStore persists roles in the roles table. Permission tables
// are stored as a JSON document per role so a single keyed read loads
// the whole definition.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a role store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get retrieves a role by (scope, name). Returns (nil, nil) if absent.
func (s *PostgresStore) Get(ctx context.Context, scope perm.Scope, name string) (*Role, error) {
	query := `
		SELECT id, scope, name, description, is_default, is_system, permissions, created_at, updated_at
		FROM roles
		WHERE scope = $1 AND name = $2
	`
	r, err := scanRole(s.db.QueryRowContext(ctx, query, string(scope), name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role %s_%s: %w", scope, name, err)
	}
	return r, nil
}

// Put creates or replaces the role record for (scope, name).
func (s *PostgresStore) Put(ctx context.Context, r *Role) error {
	permissionsJSON, err := json.Marshal(r.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO roles (id, scope, name, description, is_default, is_system, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (scope, name) DO UPDATE
		SET description = EXCLUDED.description,
		    is_default = EXCLUDED.is_default,
		    is_system = EXCLUDED.is_system,
		    permissions = EXCLUDED.permissions,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID,
		string(r.Scope),
		r.Name,
		r.Description,
		r.Default,
		r.System,
		string(permissionsJSON),
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put role %s_%s: %w", r.Scope, r.Name, err)
	}
	return nil
}

// List returns all roles ordered by scope then name.
func (s *PostgresStore) List(ctx context.Context) ([]Role, error) {
	query := `
		SELECT id, scope, name, description, is_default, is_system, permissions, created_at, updated_at
		FROM roles
		ORDER BY scope ASC, name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

func scanRole(scanner interface {
	Scan(dest ...interface{}) error
}) (*Role, error) {
	var r Role
	var scope string
	var permissionsJSON string

	err := scanner.Scan(
		&r.ID,
		&scope,
		&r.Name,
		&r.Description,
		&r.Default,
		&r.System,
		&permissionsJSON,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Scope = perm.Scope(scope)
	if permissionsJSON != "" {
		if err := json.Unmarshal([]byte(permissionsJSON), &r.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}
	if r.Permissions == nil {
		r.Permissions = perm.Table{}
	}
	return &r, nil
}
