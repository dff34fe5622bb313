package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine counters. A nil *Metrics is valid and turns every
// record call into a no-op, so components can take it as an optional
// dependency.
type Metrics struct {
	registry *prometheus.Registry

	swipeSelections    prometheus.Counter
	poolExhaustedReset prometheus.Counter
	emptyPoolNoops     prometheus.Counter
	joinMutations      *prometheus.CounterVec
	detailCacheHits    prometheus.Counter
	detailCacheMisses  prometheus.Counter
	enrichmentFailures prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.swipeSelections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "swipe_selections_total",
		Help:      "Entities selected by the swipe navigator.",
	})
	m.poolExhaustedReset = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "swipe_pool_exhausted_resets_total",
		Help:      "Visited-history resets after the candidate pool was exhausted.",
	})
	m.emptyPoolNoops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "swipe_empty_pool_noops_total",
		Help:      "Swipes that found no candidates and kept the current focus.",
	})
	m.joinMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "join_mutations_total",
		Help:      "Join/leave mutations by outcome.",
	}, []string{"verb", "result"})
	m.detailCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "detail_cache_hits_total",
		Help:      "Detail requests served without an enrichment fetch.",
	})
	m.detailCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "detail_cache_misses_total",
		Help:      "Detail requests that triggered an enrichment fetch.",
	})
	m.enrichmentFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "outandabout",
		Name:      "enrichment_failures_total",
		Help:      "Enrichment fetches that failed and degraded to shallow data.",
	})

	m.registry.MustRegister(
		m.swipeSelections,
		m.poolExhaustedReset,
		m.emptyPoolNoops,
		m.joinMutations,
		m.detailCacheHits,
		m.detailCacheMisses,
		m.enrichmentFailures,
	)

	return m
}

// Handler exposes the registry for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SwipeSelection() {
	if m == nil {
		return
	}
	m.swipeSelections.Inc()
}

func (m *Metrics) PoolExhaustedReset() {
	if m == nil {
		return
	}
	m.poolExhaustedReset.Inc()
}

func (m *Metrics) EmptyPoolNoop() {
	if m == nil {
		return
	}
	m.emptyPoolNoops.Inc()
}

func (m *Metrics) JoinMutation(verb, result string) {
	if m == nil {
		return
	}
	m.joinMutations.WithLabelValues(verb, result).Inc()
}

func (m *Metrics) DetailCacheHit() {
	if m == nil {
		return
	}
	m.detailCacheHits.Inc()
}

func (m *Metrics) DetailCacheMiss() {
	if m == nil {
		return
	}
	m.detailCacheMisses.Inc()
}

func (m *Metrics) EnrichmentFailure() {
	if m == nil {
		return
	}
	m.enrichmentFailures.Inc()
}
