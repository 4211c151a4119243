package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// HTTP holds the API request collectors. Routes are labelled by their chi
// pattern ("/documents/{id}"), never by the raw path.
type HTTP struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inFlight prometheus.Gauge
	respSize *prometheus.HistogramVec
}

// NewHTTP creates the HTTP collectors and registers them with reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ftsearch",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route", "code"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ftsearch",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ftsearch",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
		respSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ftsearch",
				Name:      "http_response_size_bytes",
				Help:      "HTTP response body size in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"route"},
		),
	}
	reg.MustRegister(m.duration, m.requests, m.inFlight, m.respSize)
	return m
}

// Middleware records duration, count and response size of every request.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		route := routeOf(r)

		m.duration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, code).Inc()
		m.respSize.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
	})
}

func routeOf(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}
