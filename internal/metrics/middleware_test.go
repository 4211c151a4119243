package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRouter(t *testing.T) (*chi.Mux, *HTTP) {
	t.Helper()
	m := NewHTTP(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1"}`))
	})
	r.Post("/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return r, m
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestHTTP_LabelsByRoutePattern(t *testing.T) {
	r, m := newTestRouter(t)

	serve(r, http.MethodGet, "/documents/1")
	serve(r, http.MethodGet, "/documents/2")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/documents/{id}", "200")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.requests); got != 1 {
		t.Errorf("expected a single series, got %d", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Errorf("expected duration observations for one series, got %d", got)
	}
}

func TestHTTP_StatusCodes(t *testing.T) {
	r, m := newTestRouter(t)

	serve(r, http.MethodPost, "/search")
	serve(r, http.MethodGet, "/nope")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/search", "400")); got != 1 {
		t.Errorf("400 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", unmatchedRoute, "404")); got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
}

func TestHTTP_InFlightReturnsToZero(t *testing.T) {
	r, m := newTestRouter(t)

	serve(r, http.MethodGet, "/documents/1")

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in_flight = %v, want 0", got)
	}
}

func TestHTTP_ResponseSize(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTP(reg)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"1"}`))
	})

	serve(r, http.MethodGet, "/documents/1")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "ftsearch_http_response_size_bytes" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 1 || h.GetSampleSum() != 10 {
			t.Errorf("response size: count=%d sum=%v, want 1 and 10", h.GetSampleCount(), h.GetSampleSum())
		}
		return
	}
	t.Fatal("ftsearch_http_response_size_bytes not gathered")
}

func TestNewHTTP_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTP(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewHTTP(reg)
}
