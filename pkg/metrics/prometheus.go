// Package metrics provides Prometheus metrics for the guild statistics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Label values for the result label of dataset loads.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Manager owns the service's Prometheus collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Dataset loading
	datasetLoads       *prometheus.CounterVec
	datasetLoadLatency *prometheus.HistogramVec
	datasetDecodeDrops *prometheus.CounterVec

	// Snapshot cache
	snapshotMembers      prometheus.Gauge
	snapshotAchievements prometheus.Gauge
	snapshotLastUnix     prometheus.Gauge
	snapshotCacheHits    prometheus.Counter
	snapshotCacheMisses  prometheus.Counter

	// Engine
	engineLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record*/Update* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "guildstats",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.datasetLoads = auto.NewCounterVec(
		m.counterOpts("dataset_loads_total", "Dataset loads by source and result"),
		[]string{"source", "result"},
	)
	m.datasetLoadLatency = auto.NewHistogramVec(
		m.histogramOpts("dataset_load_latency_milliseconds", "Time to load both datasets from a source", m.histogramBuckets),
		[]string{"source"},
	)
	m.datasetDecodeDrops = auto.NewCounterVec(
		m.counterOpts("dataset_records_skipped_total", "Records skipped because they were not objects"),
		[]string{"dataset"},
	)

	m.snapshotMembers = auto.NewGauge(m.gaugeOpts("snapshot_members", "Members in the current snapshot"))
	m.snapshotAchievements = auto.NewGauge(m.gaugeOpts("snapshot_achievements", "Achievements in the current snapshot"))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix", "Unix timestamp of the last snapshot load"))
	m.snapshotCacheHits = auto.NewCounter(m.counterOpts("snapshot_cache_hits_total", "Requests served from the cached snapshot"))
	m.snapshotCacheMisses = auto.NewCounter(m.counterOpts("snapshot_cache_misses_total", "Requests that triggered a snapshot load"))

	m.engineLatency = auto.NewHistogramVec(
		m.histogramOpts("view_latency_milliseconds", "Time spent computing a view from a snapshot", m.histogramBuckets),
		[]string{"view"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRateLimited = auto.NewCounter(m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordDatasetLoad counts a dataset load attempt and, on success, its latency.
func (m *Manager) RecordDatasetLoad(source string, latencyMs float64, err error) {
	if err != nil {
		m.datasetLoads.WithLabelValues(source, ResultFailure).Inc()
		return
	}
	m.datasetLoads.WithLabelValues(source, ResultSuccess).Inc()
	m.datasetLoadLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordSkippedRecords counts records dropped while decoding a dataset.
func (m *Manager) RecordSkippedRecords(dataset string, n int) {
	if n > 0 {
		m.datasetDecodeDrops.WithLabelValues(dataset).Add(float64(n))
	}
}

// UpdateSnapshot publishes the size and load time of a fresh snapshot.
func (m *Manager) UpdateSnapshot(members, achievements int, loadedAt time.Time) {
	m.snapshotMembers.Set(float64(members))
	m.snapshotAchievements.Set(float64(achievements))
	m.snapshotLastUnix.Set(float64(loadedAt.Unix()))
}

// RecordSnapshotCache counts a snapshot cache lookup.
func (m *Manager) RecordSnapshotCache(hit bool) {
	if hit {
		m.snapshotCacheHits.Inc()
		return
	}
	m.snapshotCacheMisses.Inc()
}

// RecordViewLatency records how long a view took to compute.
func (m *Manager) RecordViewLatency(view string, latencyMs float64) {
	m.engineLatency.WithLabelValues(view).Observe(latencyMs)
}

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Manager) RecordRateLimited() {
	m.httpRateLimited.Inc()
}

// RecordErrorByComponent counts an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// Global helpers record on the default manager.

// RecordDatasetLoad counts a dataset load on the default manager.
func RecordDatasetLoad(source string, latencyMs float64, err error) {
	globalManager.RecordDatasetLoad(source, latencyMs, err)
}

// RecordSkippedRecords counts dropped records on the default manager.
func RecordSkippedRecords(dataset string, n int) {
	globalManager.RecordSkippedRecords(dataset, n)
}

// UpdateSnapshot publishes snapshot gauges on the default manager.
func UpdateSnapshot(members, achievements int, loadedAt time.Time) {
	globalManager.UpdateSnapshot(members, achievements, loadedAt)
}

// RecordSnapshotCache counts a cache lookup on the default manager.
func RecordSnapshotCache(hit bool) {
	globalManager.RecordSnapshotCache(hit)
}

// RecordViewLatency records view latency on the default manager.
func RecordViewLatency(view string, latencyMs float64) {
	globalManager.RecordViewLatency(view, latencyMs)
}

// RecordHTTPRequest records an HTTP request on the default manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordRateLimited counts a rate limited request on the default manager.
func RecordRateLimited() {
	globalManager.RecordRateLimited()
}

// RecordErrorByComponent counts an error on the default manager.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// GetRegistry returns the custom Prometheus registry used by the default manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
