// Package metrics provides Prometheus metrics for the pitchtag service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Tagging
	commits          prometheus.Counter
	commitDuplicates prometheus.Counter
	rowsCommitted    prometheus.Counter
	linesDropped     prometheus.Counter
	commitBatchSize  prometheus.Histogram
	exports          prometheus.Counter
	exportedRows     prometheus.Counter
	clears           prometheus.Counter
	possessionResets prometheus.Counter
	mirroredBatches  prometheus.Counter
	drawingsByAction *prometheus.CounterVec
	sessionsCreated  prometheus.Counter
	sessionsExpired  prometheus.Counter
	sessionsActive   prometheus.Gauge
	sessionsRejected prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchtag",
		subsystem:        "tagger",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.commits = m.counter("commits_total", "Total number of possession commits applied")
	m.commitDuplicates = m.counter("commit_duplicates_total", "Commits skipped because their idempotency key was already seen")
	m.rowsCommitted = m.counter("rows_committed_total", "Total number of output rows appended")
	m.linesDropped = m.counter("lines_dropped_total", "Drawn lines dropped at commit for not having exactly two points")
	m.commitBatchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "commit_batch_rows",
		Help:        "Rows produced per commit",
		Buckets:     []float64{0, 1, 2, 3, 5, 8, 13, 21},
		ConstLabels: m.constLabels,
	})
	m.exports = m.counter("exports_total", "Total number of CSV exports served")
	m.exportedRows = m.counter("exported_rows_total", "Total number of rows written to CSV exports")
	m.clears = m.counter("clears_total", "Total number of output table clears")
	m.possessionResets = m.counter("possession_resets_total", "Total number of manual possession counter resets")
	m.mirroredBatches = m.counter("mirrored_batches_total", "Commits whose coordinates were mirrored for right-to-left attack")
	m.drawingsByAction = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "drawings_total",
		Help:        "Shapes drawn on the pitch by kind and action",
		ConstLabels: m.constLabels,
	}, []string{"kind", "action"})
	m.sessionsCreated = m.counter("sessions_created_total", "Total number of sessions created")
	m.sessionsExpired = m.counter("sessions_expired_total", "Sessions removed by the idle sweeper")
	m.sessionsActive = m.gauge("sessions_active", "Sessions currently held in memory")
	m.sessionsRejected = m.counter("sessions_rejected_total", "Session creations rejected at capacity")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = m.counter("http_rate_limited_total", "Requests rejected by the rate limiter")
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})
	m.errorsByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Total number of errors by type",
		ConstLabels: m.constLabels,
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordCommit records an applied commit producing rows rows with dropped
// malformed lines.
func RecordCommit(rows, dropped int, mirrored bool) {
	globalManager.commits.Inc()
	globalManager.rowsCommitted.Add(float64(rows))
	globalManager.linesDropped.Add(float64(dropped))
	globalManager.commitBatchSize.Observe(float64(rows))
	if mirrored {
		globalManager.mirroredBatches.Inc()
	}
}

// RecordCommitDuplicate counts a commit skipped by idempotency.
func RecordCommitDuplicate() {
	globalManager.commitDuplicates.Inc()
}

// RecordExport counts a CSV export of rows rows.
func RecordExport(rows int) {
	globalManager.exports.Inc()
	globalManager.exportedRows.Add(float64(rows))
}

// RecordClear counts an output table clear.
func RecordClear() {
	globalManager.clears.Inc()
}

// RecordPossessionReset counts a manual possession reset.
func RecordPossessionReset() {
	globalManager.possessionResets.Inc()
}

// RecordDrawing counts a shape drawn on the pitch. Kind is "point" or "line".
func RecordDrawing(kind, action string) {
	globalManager.drawingsByAction.WithLabelValues(kind, action).Inc()
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionsExpired counts sessions removed by the sweeper.
func RecordSessionsExpired(n int) {
	globalManager.sessionsExpired.Add(float64(n))
}

// RecordSessionRejected counts a session refused at capacity.
func RecordSessionRejected() {
	globalManager.sessionsRejected.Inc()
}

// UpdateSessionsActive sets the in-memory session gauge.
func UpdateSessionsActive(n int) {
	globalManager.sessionsActive.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited() {
	globalManager.httpRateLimited.Inc()
}

// RecordErrorByEndpoint records an error on a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
