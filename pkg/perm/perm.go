package perm

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Scope is the domain a role or membership applies to.
type Scope string

const (
	ScopeAPI         Scope = "API"
	ScopeApplication Scope = "APPLICATION"
	ScopePortal      Scope = "PORTAL"
	ScopeManagement  Scope = "MANAGEMENT"
	ScopeGroup       Scope = "GROUP"
)

// Scopes returns all valid scopes.
func Scopes() []Scope {
	return []Scope{ScopeAPI, ScopeApplication, ScopePortal, ScopeManagement, ScopeGroup}
}

// ParseScope validates and returns a scope from its string form.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAPI, ScopeApplication, ScopePortal, ScopeManagement, ScopeGroup:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid role scope %q", s)
}

// Action is one of the four CRUD action symbols.
type Action byte

const (
	ActionCreate Action = 'C'
	ActionRead   Action = 'R'
	ActionUpdate Action = 'U'
	ActionDelete Action = 'D'
)

// Mask returns the bit value used in the encoded permission table.
func (a Action) Mask() int {
	switch a {
	case ActionCreate:
		return 1
	case ActionRead:
		return 2
	case ActionUpdate:
		return 4
	case ActionDelete:
		return 8
	}
	return 0
}

// ParseAction validates an action symbol. Anything outside the
// four-symbol alphabet is a caller error.
func ParseAction(b byte) (Action, error) {
	switch Action(b) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return Action(b), nil
	}
	return 0, fmt.Errorf("invalid permission action %q", string(b))
}

func (a Action) String() string {
	return string(byte(a))
}

// MarshalJSON serializes the action as its symbol ("C", "R", "U", "D")
// rather than a byte value, keeping stored permission tables readable.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) != 1 {
		return fmt.Errorf("invalid permission action %q", s)
	}
	parsed, err := ParseAction(s[0])
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Table maps a permission key to the set of CRUD actions it grants.
// The action slice is treated as a set: duplicates collapse and order
// is not significant.
type Table map[string][]Action

// Clone returns a deep copy. Resolution merges mutate the result table,
// so role permission tables must never be shared with callers directly.
func (t Table) Clone() Table {
	if t == nil {
		return Table{}
	}
	out := make(Table, len(t))
	for key, actions := range t {
		out[key] = append([]Action(nil), actions...)
	}
	return out
}

// Merge folds other into t, taking the union of action sets per key.
func (t Table) Merge(other Table) {
	for key, actions := range other {
		t[key] = unionActions(t[key], actions)
	}
}

// Has reports whether the table grants the action on the permission key.
func (t Table) Has(key string, action Action) bool {
	for _, a := range t[key] {
		if a == action {
			return true
		}
	}
	return false
}

// Normalize sorts and deduplicates every action set in place and
// rejects symbols outside the CRUD alphabet.
func (t Table) Normalize() error {
	for key, actions := range t {
		for _, a := range actions {
			if _, err := ParseAction(byte(a)); err != nil {
				return fmt.Errorf("permission %q: %w", key, err)
			}
		}
		t[key] = unionActions(nil, actions)
	}
	return nil
}

func unionActions(a, b []Action) []Action {
	seen := make(map[Action]struct{}, len(a)+len(b))
	for _, x := range a {
		seen[x] = struct{}{}
	}
	for _, x := range b {
		seen[x] = struct{}{}
	}
	out := make([]Action, 0, len(seen))
	for x := range seen {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
