package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheErrors    *prometheus.CounterVec
	CacheSwept     prometheus.Counter
	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	Fallbacks      prometheus.Counter
	APIRequests    *prometheus.CounterVec
	StreamMessages *prometheus.CounterVec
	StreamState    prometheus.Gauge
}

// NewMetrics creates new prometheus metrics registered on reg.
// A nil reg registers on the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Fresh search results served from the local cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Search cache lookups that found nothing fresh",
		}),
		CacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Local store failures absorbed by the cache layer",
		}, []string{"operation"}),
		CacheSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_entries_total",
			Help:      "Search result entries removed by the retention sweep",
		}),
		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Flight searches by outcome",
		}, []string{"outcome"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time taken to settle a flight search",
			Buckets:   prometheus.DefBuckets,
		}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fallbacks_total",
			Help:      "Searches answered from stale cache after a failed fetch",
		}),
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API requests by operation and result",
		}, []string{"operation", "result"}),
		StreamMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_total",
			Help:      "Live update stream events by kind",
		}, []string{"kind"}),
		StreamState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_connected",
			Help:      "1 when the live update stream is connected",
		}),
	}
}

// NewNopMetrics registers on a throwaway registry, for tests and tools
func NewNopMetrics() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}
