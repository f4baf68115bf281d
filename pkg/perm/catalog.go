package perm

import "fmt"

// Permission is a permission key within a scope. The mask is a
// hundred-step offset used only by the integer encoding; two keys in
// the same scope never share a mask.
type Permission struct {
	Name string
	Mask int
}

var catalog = map[Scope][]Permission{
	ScopeManagement: {
		{"INSTANCE", 100},
		{"GROUP", 200},
		{"TAG", 300},
		{"API", 400},
		{"APPLICATION", 500},
		{"ROLE", 600},
		{"USER", 700},
		{"AUDIT", 800},
		{"NOTIFICATION", 900},
		{"SETTINGS", 1000},
	},
	ScopePortal: {
		{"METADATA", 100},
		{"DOCUMENTATION", 200},
		{"APPLICATION", 300},
		{"VIEW", 400},
		{"TOP_APIS", 500},
		{"THEME", 600},
	},
	ScopeAPI: {
		{"DEFINITION", 100},
		{"PLAN", 200},
		{"SUBSCRIPTION", 300},
		{"MEMBER", 400},
		{"METADATA", 500},
		{"ANALYTICS", 600},
		{"EVENT", 700},
		{"HEALTH", 800},
		{"LOG", 900},
		{"DOCUMENTATION", 1000},
		{"GATEWAY_DEFINITION", 1100},
		{"RATING", 1200},
		{"NOTIFICATION", 1300},
		{"ALERT", 1400},
	},
	ScopeApplication: {
		{"DEFINITION", 100},
		{"MEMBER", 200},
		{"ANALYTICS", 300},
		{"LOG", 400},
		{"SUBSCRIPTION", 500},
		{"NOTIFICATION", 600},
		{"ALERT", 700},
		{"METADATA", 800},
	},
	ScopeGroup: {
		{"MEMBER", 100},
		{"INVITATION", 200},
	},
}

// ByScope returns the permission keys defined for a scope.
func ByScope(scope Scope) []Permission {
	return catalog[scope]
}

// FindByScopeAndName looks up a permission key within a scope.
func FindByScopeAndName(scope Scope, name string) (Permission, error) {
	for _, p := range catalog[scope] {
		if p.Name == name {
			return p, nil
		}
	}
	return Permission{}, fmt.Errorf("unknown permission %q in scope %s", name, scope)
}

// Encode converts a permission table into its integer form: one value
// per key, the key's mask plus the sum of the granted action masks.
// Keys not in the scope's catalog are rejected.
func Encode(scope Scope, t Table) ([]int, error) {
	if len(t) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(t))
	for key, actions := range t {
		p, err := FindByScopeAndName(scope, key)
		if err != nil {
			return nil, err
		}
		v := p.Mask
		for _, a := range actions {
			if _, err := ParseAction(byte(a)); err != nil {
				return nil, fmt.Errorf("permission %q: %w", key, err)
			}
		}
		for _, a := range unionActions(nil, actions) {
			v += a.Mask()
		}
		out = append(out, v)
	}
	return out, nil
}

// Decode converts the integer form back into a permission table.
// Values that match no catalog key for the scope are ignored.
func Decode(scope Scope, values []int) Table {
	t := Table{}
	for _, p := range catalog[scope] {
		for _, v := range values {
			if v/100 != p.Mask/100 {
				continue
			}
			var actions []Action
			for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
				if (v-p.Mask)&a.Mask() != 0 {
					actions = append(actions, a)
				}
			}
			t[p.Name] = actions
		}
	}
	return t
}

// Signature sums a table's encoded values. It exists solely so the
// reconciler can detect drift between a stored system role and the
// compiled-in baseline; it is not an identity and collisions are
// tolerable there (a false match leaves a role unrepaired until the
// next baseline rev, a false mismatch triggers a harmless rewrite).
func Signature(scope Scope, t Table) (int, error) {
	values, err := Encode(scope, t)
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum, nil
}

// FullCRUD returns a table granting all four actions on every
// permission key of the scope.
func FullCRUD(scope Scope) Table {
	t := Table{}
	for _, p := range catalog[scope] {
		t[p.Name] = []Action{ActionCreate, ActionDelete, ActionRead, ActionUpdate}
	}
	if err := t.Normalize(); err != nil {
		panic(err) // catalog and alphabet are compiled in
	}
	return t
}
