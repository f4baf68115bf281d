// Package permcache is the caller-side permission cache: a two-tier
// (in-process LRU, shared redis) read-through layer over the
// membership resolver.
package permcache
