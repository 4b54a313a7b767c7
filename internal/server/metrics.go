package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	requests   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	signatures *prometheus.CounterVec
}

// NewMetrics registers the hackpack collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hackpack",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status_code"},
		),
		durations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hackpack",
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		signatures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hackpack",
				Name:      "webhook_signature_checks_total",
				Help:      "Webhook signature checks by event kind and result.",
			},
			[]string{"kind", "result"}, // result: "valid", "missing", "unknown_event", "invalid"
		),
	}
}

// Middleware records request counts and durations by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.durations.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
	})
}

func (m *Metrics) observeSignature(kind, result string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.signatures.WithLabelValues(kind, result).Inc()
}
