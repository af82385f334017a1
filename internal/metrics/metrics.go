// Package metrics exports view cache and mutation counters to Prometheus.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "sheetview"

// Metrics implements view.Observer and engine.MutationObserver.
type Metrics struct {
	CacheHits        *prometheus.CounterVec // by view
	Recomputes       *prometheus.CounterVec // by view
	MutationsApplied *prometheus.CounterVec // by op, kind
	MutationsFailed  *prometheus.CounterVec // by op, kind
}

// New creates the collectors under namespace. An empty namespace uses
// DefaultNamespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Metrics{
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "view_cache_hits_total",
				Help:      "View requests answered from the cache.",
			},
			[]string{"view"},
		),
		Recomputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "view_recomputes_total",
				Help:      "View computations run because inputs changed or were not cached.",
			},
			[]string{"view"},
		),
		MutationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_applied_total",
				Help:      "Mutations applied to the store.",
			},
			[]string{"op", "kind"},
		),
		MutationsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_failed_total",
				Help:      "Mutations rejected by the store.",
			},
			[]string{"op", "kind"},
		),
	}
}

// Register registers every collector on registerer.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.CacheHits,
		m.Recomputes,
		m.MutationsApplied,
		m.MutationsFailed,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func (m *Metrics) Hit(view string, _ ir.ID) {
	m.CacheHits.WithLabelValues(view).Inc()
}

func (m *Metrics) Recompute(view string, _ ir.ID) {
	m.Recomputes.WithLabelValues(view).Inc()
}

func (m *Metrics) MutationApplied(mu store.Mutation) {
	m.MutationsApplied.WithLabelValues(string(mu.Op), string(mu.Kind)).Inc()
}

func (m *Metrics) MutationFailed(mu store.Mutation, _ error) {
	m.MutationsFailed.WithLabelValues(string(mu.Op), string(mu.Kind)).Inc()
}

// WriteText writes every metric gathered from g in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
