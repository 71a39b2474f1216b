package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счётчики сервиса поверх собственного реестра prometheus,
// чтобы не тащить go_* коллекторы дважды в тестах.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	IngestTotal    prometheus.Counter
	IngestRows     prometheus.Counter
	IngestWarnings *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "gps_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gps_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		IngestTotal: auto.NewCounter(prometheus.CounterOpts{
			Name: "gps_ingest_files_total",
			Help: "Uploaded files processed.",
		}),
		IngestRows: auto.NewCounter(prometheus.CounterOpts{
			Name: "gps_ingest_rows_total",
			Help: "Canonical rows produced.",
		}),
		IngestWarnings: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "gps_ingest_warnings_total",
			Help: "Pipeline warnings by code.",
		}, []string{"code"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// routePattern — шаблон маршрута chi ("/api/reports/{id}"), а не сырой
// путь: иначе кардинальность меток взрывается на каждом id.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func (m *Metrics) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{w: w, status: 200}
			next.ServeHTTP(rw, r)

			route := routePattern(r)
			m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
			m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
