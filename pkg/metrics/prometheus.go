// Package metrics provides Prometheus metrics for the simcat search service.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by refresh and fetch metrics.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Search
	searches        *prometheus.CounterVec
	searchLatency   *prometheus.HistogramVec
	searchResults   prometheus.Histogram
	searchExcluded  *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheEvictions  prometheus.Counter
	cacheEntries    prometheus.Gauge
	unknownPolicies prometheus.Counter

	// Catalog
	catalogRefreshes       *prometheus.CounterVec
	catalogRefreshDuration prometheus.Histogram
	catalogSimulations     prometheus.Gauge
	catalogVersion         prometheus.Gauge
	catalogLastRefreshUnix prometheus.Gauge
	fetchAttempts          *prometheus.CounterVec
	fetchLatency           *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init rebuilds the package metrics on a fresh registry with opts applied.
// Call it before handlers capture GetRegistry.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "simcat",
		subsystem:        "search",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.searches = m.counterVec("searches_total", "Total number of ranking requests by policy and cache result", "policy", "cache")
	m.searchLatency = m.histogramVec("search_latency_milliseconds", "Ranking latency in milliseconds", "policy")
	m.searchResults = m.histogram("search_results", "Number of simulations returned per ranking",
		[]float64{0, 1, 2, 5, 10, 20, 50, 100, 250, 500})
	m.searchExcluded = m.counterVec("search_excluded_total", "Simulations excluded by ranking, by policy", "policy")
	m.cacheHits = m.counter("cache_hits_total", "Result cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Result cache misses")
	m.cacheEvictions = m.counter("cache_evictions_total", "Result cache evictions")
	m.cacheEntries = m.gauge("cache_entries", "Current number of cached results")
	m.unknownPolicies = m.counter("unknown_policy_total", "Requests naming an unknown scoring policy")

	m.catalogRefreshes = m.counterVec("catalog_refreshes_total", "Catalog refreshes by outcome", "outcome")
	m.catalogRefreshDuration = m.histogram("catalog_refresh_duration_milliseconds", "Catalog refresh duration in milliseconds",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	m.catalogSimulations = m.gauge("catalog_simulations", "Number of simulations in the current catalog")
	m.catalogVersion = m.gauge("catalog_version", "Version of the current catalog snapshot")
	m.catalogLastRefreshUnix = m.gauge("catalog_last_refresh_unix", "Unix timestamp of the last published catalog")
	m.fetchAttempts = m.counterVec("fetch_attempts_total", "Catalog fetch attempts by source and outcome", "source", "outcome")
	m.fetchLatency = m.histogramVec("fetch_latency_milliseconds", "Catalog fetch attempt latency in milliseconds", "source")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// RecordSearch records one ranking run. cached is true when the result came
// from the result cache.
func RecordSearch(policy string, cached bool, took time.Duration, results, excluded int) {
	cache := "miss"
	if cached {
		cache = "hit"
	}
	globalManager.searches.WithLabelValues(policy, cache).Inc()
	globalManager.searchResults.Observe(float64(results))
	if cached {
		return
	}
	globalManager.searchLatency.WithLabelValues(policy).Observe(ms(took))
	if excluded > 0 {
		globalManager.searchExcluded.WithLabelValues(policy).Add(float64(excluded))
	}
}

// RecordUnknownPolicy counts a request naming an unknown scoring policy.
func RecordUnknownPolicy() { globalManager.unknownPolicies.Inc() }

// RecordCacheHit increments the result cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the result cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheEviction increments the result cache eviction counter.
func RecordCacheEviction() { globalManager.cacheEvictions.Inc() }

// UpdateCacheEntries sets the number of cached results.
func UpdateCacheEntries(n int) { globalManager.cacheEntries.Set(float64(n)) }

// RecordCatalogRefresh records a refresh attempt and its duration.
func RecordCatalogRefresh(outcome string, took time.Duration) {
	globalManager.catalogRefreshes.WithLabelValues(outcome).Inc()
	globalManager.catalogRefreshDuration.Observe(ms(took))
}

// UpdateCatalog publishes gauges for a newly installed snapshot.
func UpdateCatalog(version uint64, simulations int, at time.Time) {
	globalManager.catalogVersion.Set(float64(version))
	globalManager.catalogSimulations.Set(float64(simulations))
	globalManager.catalogLastRefreshUnix.Set(float64(at.Unix()))
}

// RecordFetchAttempt records one catalog fetch attempt.
func RecordFetchAttempt(source, outcome string, took time.Duration) {
	globalManager.fetchAttempts.WithLabelValues(source, outcome).Inc()
	globalManager.fetchLatency.WithLabelValues(source).Observe(ms(took))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMetrics samples memory, goroutine and GC pause figures.
func UpdateSystemMetrics() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	globalManager.systemMemoryUsage.Set(float64(mem.Alloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if mem.NumGC > 0 {
		last := mem.PauseNs[(mem.NumGC+255)%256]
		globalManager.systemGCPauseTime.Observe(float64(last) / float64(time.Millisecond))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
