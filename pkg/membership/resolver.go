package membership

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/perm"
	"github.com/platinummonkey/warden/pkg/role"
)

// RoleFinder is the role lookup contract the resolver and mutator
// consume. Returns (nil, nil) when no role exists for the pair.
type RoleFinder interface {
	FindByScopeAndName(ctx context.Context, scope perm.Scope, name string) (*role.Role, error)
}

// Resolver computes a user's effective permission table on a
// resource: the union of the permissions granted by the user's direct
// membership and by their membership on each group the resource
// belongs to.
//
// The resolver caches nothing across calls. Callers that need caching
// wrap it (see the permcache package).
type Resolver struct {
	store   Store
	roles   RoleFinder
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewResolver creates a resolver over the given membership store and
// role lookup. metrics may be nil.
func NewResolver(store Store, roles RoleFinder, log *observability.Logger, metrics *observability.Metrics) *Resolver {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Resolver{store: store, roles: roles, log: log, metrics: metrics}
}

// ResolvePermissions returns the merged permission table for userID
// on the resource. An empty table means "no access" and is not an
// error. Any lookup failure fails the whole resolution; a partial
// result would fail open.
func (r *Resolver) ResolvePermissions(ctx context.Context, res Resource, userID string) (perm.Table, error) {
	start := time.Now()
	result, err := r.resolve(ctx, res, userID)
	r.observe(res, result, err, time.Since(start))
	return result, err
}

func (r *Resolver) resolve(ctx context.Context, res Resource, userID string) (perm.Table, error) {
	refType := res.Type.Canonical()

	// One direct read plus one read per group, issued in parallel.
	// All must complete before merging.
	found := make([]*Membership, len(res.Groups)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := r.store.Get(gctx, userID, Reference{Type: refType, ID: res.ID})
		if err != nil {
			return &TechnicalError{Op: "direct membership lookup", Err: err}
		}
		found[0] = m
		return nil
	})
	for i, groupID := range res.Groups {
		i, groupID := i, groupID
		g.Go(func() error {
			m, err := r.store.Get(gctx, userID, Reference{Type: RefGroup, ID: groupID})
			if err != nil {
				return &TechnicalError{Op: fmt.Sprintf("group %s membership lookup", groupID), Err: err}
			}
			found[i+1] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// One role lookup per membership found. Group memberships
	// contribute through the role they hold in the resource's scope.
	scope := refType.RoleScope()
	result := perm.Table{}
	for _, m := range found {
		if m == nil {
			continue
		}
		name, ok := m.Roles[scope]
		if !ok || name == "" {
			continue
		}
		rl, err := r.roles.FindByScopeAndName(ctx, scope, name)
		if err != nil {
			return nil, &TechnicalError{Op: fmt.Sprintf("role %s_%s lookup", scope, name), Err: err}
		}
		if rl == nil {
			r.log.WithFields(map[string]interface{}{
				"user":      userID,
				"reference": m.Reference.String(),
				"role":      fmt.Sprintf("%s_%s", scope, name),
			}).Warn("membership names a role that no longer exists")
			continue
		}
		if len(result) == 0 {
			result = rl.Permissions.Clone()
		} else {
			result.Merge(rl.Permissions)
		}
	}
	return result, nil
}

func (r *Resolver) observe(res Resource, result perm.Table, err error, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	refType := string(res.Type.Canonical())
	r.metrics.ResolutionDuration.WithLabelValues(refType).Observe(elapsed.Seconds())
	switch {
	case err != nil:
		r.metrics.ResolutionErrors.Inc()
		r.metrics.ResolutionsTotal.WithLabelValues(refType, "error").Inc()
	case len(result) == 0:
		r.metrics.ResolutionsTotal.WithLabelValues(refType, "empty").Inc()
	default:
		r.metrics.ResolutionsTotal.WithLabelValues(refType, "resolved").Inc()
	}
}
