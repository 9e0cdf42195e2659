// Package metrics exposes Prometheus counters and gauges for the
// protocol engine's control-plane activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter/gauge the protocol engine updates.
// Callers embed a *Metrics per Server instance rather than relying on
// global state.
type Metrics struct {
	NeighborState *prometheus.GaugeVec
	LSDBEntries   prometheus.Gauge
	SPFRuns       prometheus.Counter
	Routes        *prometheus.GaugeVec
}

// NewMetrics registers a fresh set of collectors for router id in reg.
func NewMetrics(reg prometheus.Registerer, routerID string) *Metrics {
	m := &Metrics{
		NeighborState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "ospf",
			Name:        "neighbor_state",
			Help:        "Current adjacency state per neighbor (1 for the active state, 0 otherwise).",
			ConstLabels: prometheus.Labels{"router": routerID},
		}, []string{"neighbor", "state"}),
		LSDBEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "ospf",
			Name:        "lsdb_entries",
			Help:        "Number of distinct origins currently held in the link-state database.",
			ConstLabels: prometheus.Labels{"router": routerID},
		}),
		SPFRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ospf",
			Name:        "spf_runs_total",
			Help:        "Number of completed SPF computations.",
			ConstLabels: prometheus.Labels{"router": routerID},
		}),
		Routes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "ospf",
			Name:        "routes",
			Help:        "Number of routing table entries by type.",
			ConstLabels: prometheus.Labels{"router": routerID},
		}, []string{"type"}),
	}

	reg.MustRegister(m.NeighborState, m.LSDBEntries, m.SPFRuns, m.Routes)
	return m
}

// NewUnregisteredMetrics builds a Metrics backed by a private registry,
// useful in tests that don't care about export.
func NewUnregisteredMetrics(routerID string) *Metrics {
	return NewMetrics(prometheus.NewRegistry(), routerID)
}
