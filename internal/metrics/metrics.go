// Package metrics exposes Prometheus counters for the skinning pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Variant labels for cluster evaluations.
const (
	VariantNormal     = "normal"
	VariantCauterized = "cauterized"
)

// Metrics groups the pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Evaluations      *prometheus.CounterVec
	Transactions     prometheus.Counter
	ItemUpdates      prometheus.Counter
	SkippedDeferred  prometheus.Counter
	MeshMismatches   prometheus.Counter
	BlendRequests    prometheus.Counter
	DeferredFlushRun prometheus.Histogram
}

// New creates the counters and registers them with reg. reg may be nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skin_cluster_evaluations_total",
				Help: "Skinning state evaluations by variant",
			},
			[]string{"variant"},
		),
		Transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skin_render_transactions_total",
			Help: "Scene transactions enqueued by model updates",
		}),
		ItemUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skin_render_item_updates_total",
			Help: "Mesh-part render item updates enqueued",
		}),
		SkippedDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skin_deferred_updates_skipped_total",
			Help: "Deferred updates that found their model destroyed or unloaded",
		}),
		MeshMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skin_mesh_count_mismatches_total",
			Help: "Render item builds aborted because mesh and state counts differ",
		}),
		BlendRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skin_blend_requests_total",
			Help: "Blend passes requested after coefficient changes",
		}),
		DeferredFlushRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skin_deferred_flush_closures",
			Help:    "Closures run per deferred queue flush",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Evaluations,
			m.Transactions,
			m.ItemUpdates,
			m.SkippedDeferred,
			m.MeshMismatches,
			m.BlendRequests,
			m.DeferredFlushRun,
		)
	}
	return m
}

// Evaluated records one evaluation of the given variant.
func (m *Metrics) Evaluated(variant string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(variant).Inc()
}

// TransactionEnqueued records a transaction carrying items updates.
func (m *Metrics) TransactionEnqueued(items int) {
	if m == nil {
		return
	}
	m.Transactions.Inc()
	m.ItemUpdates.Add(float64(items))
}

// DeferredSkipped records a deferred update that became a no-op.
func (m *Metrics) DeferredSkipped() {
	if m == nil {
		return
	}
	m.SkippedDeferred.Inc()
}

// MeshMismatch records an aborted render item build.
func (m *Metrics) MeshMismatch() {
	if m == nil {
		return
	}
	m.MeshMismatches.Inc()
}

// BlendRequested records a blend notification.
func (m *Metrics) BlendRequested() {
	if m == nil {
		return
	}
	m.BlendRequests.Inc()
}

// FlushRan records how many closures one deferred flush ran.
func (m *Metrics) FlushRan(n int) {
	if m == nil {
		return
	}
	m.DeferredFlushRun.Observe(float64(n))
}
