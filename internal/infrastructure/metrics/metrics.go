// Package metrics exposes Prometheus instrumentation for report generation,
// the report cache, HTTP traffic and the database pool.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/reports"
)

const namespace = "anthrilo"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Compile-time check that Metrics implements reports.Observer.
var _ reports.Observer = (*Metrics)(nil)

// Metrics owns a dedicated registry so tests and multiple servers never
// collide on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	reportsTotal   *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	cachePurged    prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports generated, by report name and outcome code.",
		},
		[]string{"report", "outcome"},
	)
	m.reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent generating a report.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"report"},
	)
	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups, by result (hit or miss).",
		},
		[]string{"result"},
	)
	m.cachePurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_purged_entries_total",
			Help:      "Report cache entries dropped on data-change notifications.",
		},
	)
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.registry.MustRegister(
		m.reportsTotal,
		m.reportDuration,
		m.cacheLookups,
		m.cachePurged,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveReport implements reports.Observer. Failures are labelled with their
// AppError code.
func (m *Metrics) ObserveReport(name string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		if appErr, ok := apperror.AsAppError(err); ok {
			outcome = appErr.Code
		}
	}
	m.reportsTotal.WithLabelValues(name, outcome).Inc()
	m.reportDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// CacheLookup records a report cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CachePurged records entries dropped by a cache invalidation. It matches
// cache.InvalidationListener.
func (m *Metrics) CachePurged(_ string, purged int) {
	m.cachePurged.Add(float64(purged))
}

// RegisterPool exports connection pool gauges read from pool on every scrape.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	gauge := func(name, help string, read func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(pool.Stat()) })
	}
	m.registry.MustRegister(
		gauge("total_conns", "Connections currently open.",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("acquired_conns", "Connections currently in use.",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("idle_conns", "Connections currently idle.",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("max_conns", "Configured connection limit.",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
	)
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
