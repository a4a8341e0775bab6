package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Detection metrics
	DetectionRunsTotal   prometheus.Counter
	DetectionDuration    prometheus.Histogram
	BreakingChangesTotal *prometheus.CounterVec
	ImpactRecordsTotal   prometheus.Counter
	MigrationGuidesTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Registry metrics
	ContractsTotal prometheus.Gauge
	ConsumersTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractguard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contractguard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contractguard_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contractguard_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Detection metrics
		DetectionRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contractguard_detection_runs_total",
				Help: "Total number of change detection runs",
			},
		),
		DetectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contractguard_detection_duration_seconds",
				Help:    "Change detection run duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		BreakingChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractguard_breaking_changes_total",
				Help: "Total number of breaking changes detected",
			},
			[]string{"severity"},
		),
		ImpactRecordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contractguard_impact_records_total",
				Help: "Total number of consumer impact records created",
			},
		),
		MigrationGuidesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contractguard_migration_guides_total",
				Help: "Total number of migration guides generated",
			},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractguard_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractguard_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "contractguard_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "contractguard_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		// Registry metrics
		ContractsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "contractguard_contracts_total",
				Help: "Total number of registered contracts",
			},
		),
		ConsumersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "contractguard_consumers_total",
				Help: "Total number of registered consumers",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.DetectionRunsTotal,
		m.DetectionDuration,
		m.BreakingChangesTotal,
		m.ImpactRecordsTotal,
		m.MigrationGuidesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.ContractsTotal,
		m.ConsumersTotal,
	)

	return m
}

// RecordDetectionRun records the outcome of one detection run.
func (m *Metrics) RecordDetectionRun(changes, impacts int) {
	m.DetectionRunsTotal.Inc()
	m.ImpactRecordsTotal.Add(float64(impacts))
	m.MigrationGuidesTotal.Add(float64(changes))
}

// RecordBreakingChange counts one detected change at its severity.
func (m *Metrics) RecordBreakingChange(severity string) {
	m.BreakingChangesTotal.WithLabelValues(severity).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
