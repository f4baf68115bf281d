package role

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/perm"
)

// Reconciler creates missing system roles and repairs any whose
// permission table has drifted from the baseline. Reconcile is
// idempotent and safe to re-run at any time.
type Reconciler struct {
	store    Store
	baseline Baseline
	log      *observability.Logger
	metrics  *observability.Metrics
}

// NewReconciler creates a reconciler for the given baseline.
func NewReconciler(store Store, baseline Baseline, log *observability.Logger, metrics *observability.Metrics) *Reconciler {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Reconciler{store: store, baseline: baseline, log: log, metrics: metrics}
}

// Reconcile walks the baseline: one lookup per entry, then at most one
// create (absent) or update (drift signature mismatch). A failure on
// one entry aborts the pass but does not roll back entries already
// reconciled; the next run picks up where this one failed.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	for _, entry := range r.baseline.Entries {
		if err := r.reconcileEntry(ctx, entry); err != nil {
			return fmt.Errorf("reconcile %s_%s: %w", entry.Scope, entry.Name, err)
		}
	}
	return nil
}

func (r *Reconciler) reconcileEntry(ctx context.Context, entry BaselineEntry) error {
	log := r.log.WithField("role", fmt.Sprintf("%s_%s", entry.Scope, entry.Name))

	existing, err := r.store.Get(ctx, entry.Scope, entry.Name)
	if err != nil {
		return err
	}

	if existing == nil {
		now := time.Now()
		created := &Role{
			ID:          uuid.NewString(),
			Scope:       entry.Scope,
			Name:        entry.Name,
			Description: entry.Description,
			System:      true,
			Permissions: entry.Permissions.Clone(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.store.Put(ctx, created); err != nil {
			return err
		}
		r.count("created")
		log.Info("system role created")
		return nil
	}

	drifted, err := r.hasDrift(entry, existing)
	if err != nil {
		return err
	}
	if !drifted {
		r.count("unchanged")
		return nil
	}

	existing.Description = entry.Description
	existing.System = true
	existing.Permissions = entry.Permissions.Clone()
	existing.UpdatedAt = time.Now()
	if err := r.store.Put(ctx, existing); err != nil {
		return err
	}
	r.count("repaired")
	log.WithField("baseline_version", r.baseline.Version).Warn("system role permissions drifted, repaired to baseline")
	return nil
}

// hasDrift compares the drift signatures of the stored and expected
// permission tables. A stored table that no longer encodes (unknown
// keys, bad symbols) counts as drifted so repair still happens.
func (r *Reconciler) hasDrift(entry BaselineEntry, stored *Role) (bool, error) {
	want, err := perm.Signature(entry.Scope, entry.Permissions)
	if err != nil {
		return false, fmt.Errorf("baseline table does not encode: %w", err)
	}
	got, err := perm.Signature(entry.Scope, stored.Permissions)
	if err != nil {
		return true, nil
	}
	return got != want, nil
}

func (r *Reconciler) count(outcome string) {
	if r.metrics != nil {
		r.metrics.ReconcileOutcomesTotal.WithLabelValues(outcome).Inc()
	}
}
