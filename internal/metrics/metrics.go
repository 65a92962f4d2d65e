// Package metrics holds the prometheus collectors of the rollup service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records tree builds per domain.
type Metrics struct {
	TreesBuilt    *prometheus.CounterVec
	BuildSeconds  *prometheus.HistogramVec
	GroupsDropped *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TreesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_trees_built_total",
			Help: "Scope trees built, by domain.",
		}, []string{"domain"}),
		BuildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollup_tree_build_seconds",
			Help:    "Time to build a scope tree, by domain.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"domain"}),
		GroupsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_leaf_groups_dropped_total",
			Help: "Leaf groups dropped because no scope path could be resolved, by domain.",
		}, []string{"domain"}),
	}
	reg.MustRegister(m.TreesBuilt, m.BuildSeconds, m.GroupsDropped)
	return m
}

// ObserveBuild records one finished build.
func (m *Metrics) ObserveBuild(domain string, took time.Duration, dropped int) {
	m.TreesBuilt.WithLabelValues(domain).Inc()
	m.BuildSeconds.WithLabelValues(domain).Observe(took.Seconds())
	if dropped > 0 {
		m.GroupsDropped.WithLabelValues(domain).Add(float64(dropped))
	}
}
