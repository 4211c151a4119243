package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"path", "status"}, // path: "sync" / "async"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ftsearch",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"path"},
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ftsearch",
			Name:      "search_candidates",
			Help:      "Candidates produced per search before pagination",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	HookErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftsearch",
			Name:      "hook_errors_total",
			Help:      "Total before/after search hook failures",
		},
		[]string{"kind"}, // "before" / "after"
	)

	PropertyCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftsearch",
			Name:      "property_cache_total",
			Help:      "Searchable property cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers the search collectors with the default registry.
// Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			SearchCandidates,
			HookErrorsTotal,
			PropertyCacheTotal,
		)
	})
}

// ObserveSearch records one finished search.
func ObserveSearch(path string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(path, status).Inc()
	SearchDuration.WithLabelValues(path).Observe(d.Seconds())
}
