package role

import (
	"fmt"
	"time"

	"github.com/platinummonkey/warden/pkg/perm"
)

// System role names. These are reserved: custom roles may not take
// them, and the reconciler owns their permission tables.
const (
	SystemAdmin        = "ADMIN"
	SystemPrimaryOwner = "PRIMARY_OWNER"
)

// IsSystemName reports whether name is reserved for system roles.
func IsSystemName(name string) bool {
	return name == SystemAdmin || name == SystemPrimaryOwner
}

// Role is a named set of permissions within a scope. Roles are
// identified by the (scope, name) pair; the ID is a storage surrogate.
type Role struct {
	ID          string     `json:"id"`
	Scope       perm.Scope `json:"scope"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Default     bool       `json:"default"`
	System      bool       `json:"system"`
	Permissions perm.Table `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewRole is the input for creating a custom role.
type NewRole struct {
	Scope       perm.Scope `json:"scope"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Default     bool       `json:"default"`
	Permissions perm.Table `json:"permissions"`
}

// UpdateRole is the input for updating an existing role.
type UpdateRole struct {
	Scope       perm.Scope `json:"scope"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Default     bool       `json:"default"`
	Permissions perm.Table `json:"permissions"`
}

// NotFoundError indicates that no role exists for a (scope, name) pair.
// Recoverable by the caller (create the role first); never retried.
type NotFoundError struct {
	Scope perm.Scope
	Name  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("role %s_%s not found", e.Scope, e.Name)
}

// ExistsError indicates a create collided with an existing (scope, name).
type ExistsError struct {
	Scope perm.Scope
	Name  string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("role %s_%s already exists", e.Scope, e.Name)
}

// ReservedNameError indicates an attempt to create a custom role under
// a system role name.
type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("role name %q is reserved for system roles", e.Name)
}
