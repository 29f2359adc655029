// Package metrics provides Prometheus metrics for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "profit_levers"

// Evaluation sources.
const (
	SourceDashboard = "dashboard"
	SourceAPI       = "api"
	SourceLive      = "live"
)

// unmatchedRoute labels requests no route matched, keeping the route label
// bounded.
const unmatchedRoute = "unmatched"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Model metrics
	Evaluations      *prometheus.CounterVec
	EvaluationErrors *prometheus.CounterVec
	ClampedLevers    *prometheus.CounterVec
	LastNetProfit    prometheus.Gauge

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	LiveConnections prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry, together
// with the Go runtime and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "evaluations_total",
			Help:      "Total number of profit model evaluations",
		}, []string{"source"}),
		EvaluationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "evaluation_errors_total",
			Help:      "Total number of rejected profit model evaluations",
		}, []string{"source"}),
		ClampedLevers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "clamped_levers_total",
			Help:      "Total number of lever values clamped into range",
		}, []string{"source"}),
		LastNetProfit: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "last_net_profit",
			Help:      "Net profit of the most recent evaluation, AUD '000",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "live_connections",
			Help:      "Open websocket connections",
		}),
	}
}

// ObserveEvaluation records the outcome of one evaluation.
func (m *Metrics) ObserveEvaluation(source string, netProfit float64, clamped int, err error) {
	if err != nil {
		m.EvaluationErrors.WithLabelValues(source).Inc()
		return
	}
	m.Evaluations.WithLabelValues(source).Inc()
	if clamped > 0 {
		m.ClampedLevers.WithLabelValues(source).Add(float64(clamped))
	}
	m.LastNetProfit.Set(netProfit)
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware times requests by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
