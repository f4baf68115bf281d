package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the access control engine
type Metrics struct {
	// Resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	ResolutionErrors   prometheus.Counter

	// Membership mutation metrics
	MembershipWritesTotal *prometheus.CounterVec
	MembershipRejections  *prometheus.CounterVec

	// Reconciliation metrics
	ReconcileRunsTotal     *prometheus.CounterVec
	ReconcileOutcomesTotal *prometheus.CounterVec

	// Permission cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal prometheus.Counter

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_resolutions_total",
				Help: "Total number of permission resolutions",
			},
			[]string{"reference_type", "outcome"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_resolution_duration_seconds",
				Help:    "Permission resolution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"reference_type"},
		),
		ResolutionErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_resolution_errors_total",
				Help: "Total number of failed permission resolutions",
			},
		),

		MembershipWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_membership_writes_total",
				Help: "Total number of membership create/update writes",
			},
			[]string{"reference_type", "operation"},
		),
		MembershipRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_membership_rejections_total",
				Help: "Total number of membership mutations rejected by invariants",
			},
			[]string{"reason"},
		),

		ReconcileRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_reconcile_runs_total",
				Help: "Total number of system role reconciliation passes",
			},
			[]string{"status"},
		),
		ReconcileOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_reconcile_outcomes_total",
				Help: "Per-role outcomes of system role reconciliation",
			},
			[]string{"outcome"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_permission_cache_hits_total",
				Help: "Total number of permission cache hits",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_permission_cache_misses_total",
				Help: "Total number of permission cache misses",
			},
		),

		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_notifications_total",
				Help: "Total number of membership notifications dispatched",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.ResolutionErrors,
		m.MembershipWritesTotal,
		m.MembershipRejections,
		m.ReconcileRunsTotal,
		m.ReconcileOutcomesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.NotificationsTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry's metrics
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
