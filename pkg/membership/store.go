package membership

import "context"

// Store is the persistence contract for membership records. Keyed
// lookups only; the engine never requires range scans.
//
// Get returns (nil, nil) when no record exists for the key. The
// reference type is canonicalized before lookup, so legacy compound
// group references hit the same record as a plain GROUP reference.
// Put creates or replaces the record wholesale. The store provides
// read-your-writes per key; concurrent writers last-write-win.
type Store interface {
	Get(ctx context.Context, userID string, ref Reference) (*Membership, error)
	Put(ctx context.Context, m *Membership) error
}
