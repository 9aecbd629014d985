// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the background workers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on its own registry so two instances never
// collide in tests.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DocumentosProcessados *prometheus.CounterVec
	PrazosPerdidosTotal   prometheus.Counter
	TarefasFalhasTotal    *prometheus.CounterVec
}

// New builds the collectors under the given metric prefix and registers
// them along with the standard Go runtime collectors.
func New(prefix string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		DocumentosProcessados: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_documentos_processados_total",
				Help: "Documents processed by the AI pipeline, by outcome",
			},
			[]string{"resultado"},
		),
		PrazosPerdidosTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_prazos_perdidos_total",
				Help: "Deadlines marked as missed by the periodic scan",
			},
		),
		TarefasFalhasTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_tarefas_falhas_total",
				Help: "Background task failures, by task type",
			},
			[]string{"tipo"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DocumentosProcessados,
		m.PrazosPerdidosTotal,
		m.TarefasFalhasTotal,
	)
	return m
}

// Middleware records request counts and latencies per route.
func (m *Metrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		duration := time.Since(start).Seconds()
		method := c.Request().Method
		path := c.Path()
		status := strconv.Itoa(c.Response().Status)

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)

		return err
	}
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
