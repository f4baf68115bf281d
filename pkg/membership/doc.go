// Package membership holds the core of the access control engine: the
// membership record model, its stores, the permission resolver that
// merges direct and group-inherited grants, and the mutator that
// applies membership writes under the primary-owner invariant.
package membership
