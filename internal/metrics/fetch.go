package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fetch and search Prometheus metrics. The "kind" label is "corpus" or "json".
var (
	FetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_requests_total",
			Help:      "Total number of upstream document fetches",
		},
		[]string{"kind", "result"}, // result: "success" / "status_error" / "transport_error" / "too_large"
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"kind"},
	)

	FetchBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_bytes_total",
			Help:      "Total decoded bytes fetched from upstream",
		},
		[]string{"kind"},
	)

	FetchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_cache_total",
			Help:      "Fetch cache hits and misses",
		},
		[]string{"kind", "result"}, // "hit" / "miss"
	)

	SentencesScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sentences_scanned_total",
			Help:      "Total sentences evaluated against a query",
		},
	)

	SearchMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_matches_total",
			Help:      "Total matching sentences or JSON values",
		},
		[]string{"mode"}, // "boolean" / "legacy" / "json"
	)
)

var fetchMetricsRegistered bool

// RegisterFetchMetrics registers fetch and search metrics. Must be called once from main.
func RegisterFetchMetrics() {
	if fetchMetricsRegistered {
		return
	}
	prometheus.MustRegister(FetchRequestsTotal)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(FetchBytesTotal)
	prometheus.MustRegister(FetchCacheTotal)
	prometheus.MustRegister(SentencesScannedTotal)
	prometheus.MustRegister(SearchMatchesTotal)
	fetchMetricsRegistered = true
}

// CacheCounter returns the cache hit/miss counter for one fetch kind,
// leaving only the "result" label.
func CacheCounter(kind string) *prometheus.CounterVec {
	return FetchCacheTotal.MustCurryWith(prometheus.Labels{"kind": kind})
}
