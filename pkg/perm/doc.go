// Package perm defines the permission domain for the Warden access
// control engine: role scopes, the CRUD action alphabet, the per-scope
// permission-key catalogs, and the permission table type that role
// definitions carry and permission resolution merges.
//
// A permission table maps a permission key (a domain action category
// such as "DOCUMENTATION" or "PLAN") to the set of CRUD actions it
// grants. Tables support deep copy and union merge, which is how
// direct and group-inherited grants combine into a user's effective
// permissions.
//
// The integer encoding (Encode/Decode/Signature) packs each key's
// hundred-step mask with one bit per action. It exists only so the
// system role reconciler can cheaply detect permission drift; nothing
// else may treat it as an identity.
package perm
