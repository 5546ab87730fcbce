package nutrition

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "nutrition"

// Metrics counts engine activity. A nil *Metrics records nothing.
type Metrics struct {
	conversions     *prometheus.CounterVec
	pathCacheHits   prometheus.Counter
	pathCacheMisses prometheus.Counter
	graphRebuilds   prometheus.Counter
}

// NewMetrics registers the engine collectors with reg. A nil reg leaves them
// unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "conversions_total",
			Help:      "Quantity conversions by result.",
		}, []string{"result"}),
		pathCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "path_cache_hits_total",
			Help:      "Conversion path lookups answered from the path cache.",
		}),
		pathCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "path_cache_misses_total",
			Help:      "Conversion path lookups that needed a graph search.",
		}),
		graphRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_rebuilds_total",
			Help:      "Full rebuilds of the conversion graph.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.conversions, m.pathCacheHits, m.pathCacheMisses, m.graphRebuilds)
	}
	return m
}

func (m *Metrics) observeConversion(result string) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(result).Inc()
}

func (m *Metrics) observePathCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.pathCacheHits.Inc()
	} else {
		m.pathCacheMisses.Inc()
	}
}

func (m *Metrics) observeRebuild() {
	if m == nil {
		return
	}
	m.graphRebuilds.Inc()
}
