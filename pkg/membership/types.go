package membership

import (
	"fmt"
	"time"

	"github.com/platinummonkey/warden/pkg/perm"
	"github.com/platinummonkey/warden/pkg/role"
)

// ReferenceType identifies the kind of entity a membership attaches to.
type ReferenceType string

const (
	RefAPI         ReferenceType = "API"
	RefApplication ReferenceType = "APPLICATION"
	RefGroup       ReferenceType = "GROUP"
	RefPortal      ReferenceType = "PORTAL"
	RefManagement  ReferenceType = "MANAGEMENT"

	// Legacy compound group types. Older records qualified a group
	// membership to a sub-domain; they resolve identically to GROUP.
	RefGroupAPIs         ReferenceType = "GROUP_API"
	RefGroupApplications ReferenceType = "GROUP_APPLICATION"
)

// Canonical collapses legacy compound group types onto GROUP. All
// storage keys and resolution logic operate on canonical types.
func (t ReferenceType) Canonical() ReferenceType {
	switch t {
	case RefGroupAPIs, RefGroupApplications:
		return RefGroup
	default:
		return t
	}
}

// ParseReferenceType validates a reference type string.
func ParseReferenceType(s string) (ReferenceType, error) {
	t := ReferenceType(s).Canonical()
	switch t {
	case RefAPI, RefApplication, RefGroup, RefPortal, RefManagement:
		return t, nil
	}
	return "", fmt.Errorf("unknown reference type %q", s)
}

// RoleScope returns the role scope a direct membership on this
// reference type is resolved against.
func (t ReferenceType) RoleScope() perm.Scope {
	switch t.Canonical() {
	case RefAPI:
		return perm.ScopeAPI
	case RefApplication:
		return perm.ScopeApplication
	case RefGroup:
		return perm.ScopeGroup
	case RefPortal:
		return perm.ScopePortal
	default:
		return perm.ScopeManagement
	}
}

// Reference is the entity a membership attaches to.
type Reference struct {
	Type ReferenceType `json:"type"`
	ID   string        `json:"id"`
}

// Canonical returns the reference with its type canonicalized.
func (r Reference) Canonical() Reference {
	return Reference{Type: r.Type.Canonical(), ID: r.ID}
}

func (r Reference) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// Membership records a user's role assignment on a reference. At most
// one role name per scope. Identified by (user, reference type,
// reference id).
type Membership struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Reference Reference             `json:"reference"`
	Roles     map[perm.Scope]string `json:"roles"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so callers can
// mutate results freely.
func (m *Membership) Clone() *Membership {
	if m == nil {
		return nil
	}
	c := *m
	c.Roles = make(map[perm.Scope]string, len(m.Roles))
	for scope, name := range m.Roles {
		c.Roles[scope] = name
	}
	return &c
}

// User is the directory record for a member, supplied by the caller's
// user directory.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// MemberView is the enriched result of a membership mutation: the
// stored assignment plus directory details and the applied role.
type MemberView struct {
	UserID      string                `json:"user_id"`
	DisplayName string                `json:"display_name,omitempty"`
	Email       string                `json:"email,omitempty"`
	Reference   Reference             `json:"reference"`
	Roles       map[perm.Scope]string `json:"roles"`
	Role        *role.Role            `json:"role,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Resource is the resolver input: the entity being accessed and the
// ids of the groups it belongs to. Groups may be nil or empty.
type Resource struct {
	Type   ReferenceType `json:"type"`
	ID     string        `json:"id"`
	Groups []string      `json:"groups,omitempty"`
}
