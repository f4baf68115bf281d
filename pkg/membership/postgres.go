package membership

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/warden/pkg/perm"
)

// PostgresStore persists memberships in the memberships table. The
// per-scope role map is stored as a JSON document so a single keyed
// read loads the whole assignment.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a membership store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get retrieves the membership for (user, reference). Returns
// (nil, nil) if absent. The reference type is canonicalized first.
func (s *PostgresStore) Get(ctx context.Context, userID string, ref Reference) (*Membership, error) {
	ref = ref.Canonical()
	query := `
		SELECT id, user_id, reference_type, reference_id, roles, created_at, updated_at
		FROM memberships
		WHERE user_id = $1 AND reference_type = $2 AND reference_id = $3
	`
	m, err := scanMembership(s.db.QueryRowContext(ctx, query, userID, string(ref.Type), ref.ID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership %s on %s: %w", userID, ref, err)
	}
	return m, nil
}

// Put creates or replaces the membership record for its key.
func (s *PostgresStore) Put(ctx context.Context, m *Membership) error {
	ref := m.Reference.Canonical()
	rolesJSON, err := json.Marshal(m.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	query := `
		INSERT INTO memberships (id, user_id, reference_type, reference_id, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, reference_type, reference_id) DO UPDATE
		SET roles = EXCLUDED.roles,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		string(ref.Type),
		ref.ID,
		string(rolesJSON),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put membership %s on %s: %w", m.UserID, ref, err)
	}
	return nil
}

func scanMembership(scanner interface {
	Scan(dest ...interface{}) error
}) (*Membership, error) {
	var m Membership
	var refType string
	var rolesJSON string

	err := scanner.Scan(
		&m.ID,
		&m.UserID,
		&refType,
		&m.Reference.ID,
		&rolesJSON,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Reference.Type = ReferenceType(refType)
	if rolesJSON != "" {
		if err := json.Unmarshal([]byte(rolesJSON), &m.Roles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
		}
	}
	if m.Roles == nil {
		m.Roles = make(map[perm.Scope]string)
	}
	return &m, nil
}
