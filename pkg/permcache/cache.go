package permcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/warden/pkg/membership"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/perm"
)

const keyPrefix = "warden:perm:"

// PermissionSource resolves effective permissions; in production this
// is the membership resolver.
type PermissionSource interface {
	ResolvePermissions(ctx context.Context, res membership.Resource, userID string) (perm.Table, error)
}

// Cache is a two-tier read-through cache over a PermissionSource:
// a small in-process expirable LRU in front of an optional shared
// redis tier. The resolver itself never caches; this is the
// caller-side caching layer.
//
// Entries are keyed by user, resource and the resource's group set, so
// a caller passing different group memberships gets distinct entries.
// Staleness is bounded by the TTL; Invalidate drops a user's entries
// early after a membership or role change.
type Cache struct {
	source  PermissionSource
	l1      *expirable.LRU[string, perm.Table]
	redis   *redis.Client
	ttl     time.Duration
	log     *observability.Logger
	metrics *observability.Metrics
}

// New creates a cache of at most size entries with the given TTL.
// redisClient may be nil for a process-local cache.
func New(source PermissionSource, redisClient *redis.Client, size int, ttl time.Duration,
	log *observability.Logger, metrics *observability.Metrics) *Cache {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Cache{
		source:  source,
		l1:      expirable.NewLRU[string, perm.Table](size, nil, ttl),
		redis:   redisClient,
		ttl:     ttl,
		log:     log,
		metrics: metrics,
	}
}

// ResolvePermissions returns the cached table when present, resolving
// and filling both tiers on a miss. Resolution errors are never
// cached.
func (c *Cache) ResolvePermissions(ctx context.Context, res membership.Resource, userID string) (perm.Table, error) {
	key := cacheKey(res, userID)

	if cached, ok := c.l1.Get(key); ok {
		c.hit("l1")
		return cached.Clone(), nil
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var cached perm.Table
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				c.hit("l2")
				c.l1.Add(key, cached.Clone())
				return cached, nil
			}
			c.log.WithField("key", key).Warn("discarding undecodable cached permission table")
		case err != redis.Nil:
			// A redis outage degrades to resolving; it must not fail
			// permission checks.
			c.log.WithError(err).Warn("permission cache read failed")
		}
	}

	c.miss()
	resolved, err := c.source.ResolvePermissions(ctx, res, userID)
	if err != nil {
		return nil, err
	}

	c.l1.Add(key, resolved.Clone())
	if c.redis != nil {
		if raw, err := json.Marshal(resolved); err == nil {
			if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.log.WithError(err).Warn("permission cache write failed")
			}
		}
	}
	return resolved, nil
}

// Invalidate drops every cached entry for the user, across both tiers.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	prefix := keyPrefix + userID + ":"
	for _, key := range c.l1.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.l1.Remove(key)
		}
	}

	if c.redis == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan permission cache for %s: %w", userID, err)
		}
		if len(keys) > 0 {
			if err := c.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to invalidate permission cache for %s: %w", userID, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// cacheKey folds the group set in sorted order so the same resource
// view always hits the same entry.
func cacheKey(res membership.Resource, userID string) string {
	groups := append([]string(nil), res.Groups...)
	sort.Strings(groups)
	return keyPrefix + userID + ":" + string(res.Type.Canonical()) + ":" + res.ID + ":" + strings.Join(groups, ",")
}

func (c *Cache) hit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
