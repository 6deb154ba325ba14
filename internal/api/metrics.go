package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
	"github.com/nerrad567/gray-logic-autopilot/internal/session"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "graylogic_autopilot"

// Metrics exposes Prometheus metrics for the service.
//
// It receives session state broadcasts (gauges) and autopilot lifecycle
// events through autopilot.TelemetryHooks (counters).
type Metrics struct {
	registry *prometheus.Registry

	enabled     prometheus.Gauge
	oscillators prometheus.Gauge
	bindings    prometheus.Gauge
	placed      prometheus.Gauge
	events      *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics set on its own registry, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "enabled",
			Help:      "1 while the autopilot is enabled",
		}),
		oscillators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "owned_oscillators",
			Help:      "Oscillators carrying the autopilot ownership tag",
		}),
		bindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "owned_bindings",
			Help:      "Bindings carrying the autopilot ownership tag",
		}),
		placed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "first_start_modulations",
			Help:      "Modulations placed by the most recent first start",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Autopilot lifecycle events",
		}, []string{"event"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.enabled, m.oscillators, m.bindings, m.placed, m.events,
		m.requests, m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Broadcast updates the state gauges from an autopilot status broadcast.
func (m *Metrics) Broadcast(channel string, payload any) {
	if channel != session.StateChannel {
		return
	}
	st, ok := payload.(autopilot.Status)
	if !ok {
		return
	}
	m.Observe(st)
}

// Observe sets the state gauges from st.
func (m *Metrics) Observe(st autopilot.Status) {
	if st.Enabled {
		m.enabled.Set(1)
	} else {
		m.enabled.Set(0)
	}
	m.oscillators.Set(float64(st.Oscillators))
	m.bindings.Set(float64(st.Bindings))
}

// WriteAutopilotEvent counts a lifecycle event.
func (m *Metrics) WriteAutopilotEvent(event string, modulations int) {
	m.events.WithLabelValues(event).Inc()
	if event == autopilot.EventStarted {
		m.placed.Set(float64(modulations))
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// middleware records request counts and latency by chi route pattern.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
