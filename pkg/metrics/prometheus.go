// Package metrics provides Prometheus metrics for the prospect scoring service.
package metrics

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	recomputesTotal       prometheus.Counter
	recomputesDuplicate   prometheus.Counter
	recomputeErrors       prometheus.Counter
	recomputeLatency      prometheus.Histogram
	insufficientData      prometheus.Counter
	snapshotsAppended     prometheus.Counter
	mpiScore              prometheus.Histogram
	athletesRanked        prometheus.Gauge
	sessionsRecorded      *prometheus.CounterVec
	dailyLogsRecorded     prometheus.Counter
	integrityFlagsRaised  *prometheus.CounterVec
	integrityFlagsCleared prometheus.Counter

	// Ranking store snapshots
	rankingSnapshotDuration prometheus.Histogram
	rankingSnapshotLastUnix prometheus.Gauge
	rankingSnapshotCount    prometheus.Counter
	rankingUpdateLatency    prometheus.Histogram
	rankingQueryLatency     prometheus.Histogram
	rankingCacheHits        prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Storage
	storageQueryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prospect",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     prometheus.LinearBuckets(10, 10, 10),
		constLabels:      map[string]string{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	b := m.histogramBuckets

	m.recomputesTotal = m.counter("recomputes_total", "Total number of completed MPI recomputes")
	m.recomputesDuplicate = m.counter("recomputes_duplicate_total", "Recompute requests dropped because one was already pending")
	m.recomputeErrors = m.counter("recompute_errors_total", "Recomputes that failed")
	m.recomputeLatency = m.histogram("recompute_latency_milliseconds", "Latency of a single MPI recompute in milliseconds", b)
	m.insufficientData = m.counter("insufficient_data_total", "Recomputes skipped because the athlete had no scorable sessions")
	m.snapshotsAppended = m.counter("snapshots_appended_total", "Composite score snapshots written")
	m.mpiScore = m.histogram("mpi_score", "Distribution of adjusted MPI scores", m.scoreBuckets)
	m.athletesRanked = m.gauge("athletes_ranked", "Athletes currently present in the ranking store")
	m.sessionsRecorded = m.counterVec("sessions_recorded_total", "Performance sessions recorded by session type", "session_type")
	m.dailyLogsRecorded = m.counter("daily_logs_recorded_total", "Daily log entries written")
	m.integrityFlagsRaised = m.counterVec("integrity_flags_raised_total", "Integrity flags raised by severity", "severity")
	m.integrityFlagsCleared = m.counter("integrity_flags_resolved_total", "Integrity flags resolved")

	m.rankingSnapshotDuration = m.histogram("ranking_snapshot_rebuild_duration_milliseconds",
		"Time to rebuild the ranking snapshot in milliseconds",
		[]float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
	m.rankingSnapshotLastUnix = m.gauge("ranking_snapshot_last_unixtime", "Unix time of the last ranking snapshot")
	m.rankingSnapshotCount = m.counter("ranking_snapshot_total", "Ranking snapshots published")
	m.rankingUpdateLatency = m.histogram("ranking_update_latency_milliseconds", "Ranking update latency in milliseconds", b)
	m.rankingQueryLatency = m.histogram("ranking_query_latency_milliseconds", "Ranking query latency in milliseconds", b)
	m.rankingCacheHits = m.counter("ranking_top_cache_hits_total", "Leaderboard reads served from the ranking snapshot")

	m.queueSize = m.gauge("queue_size", "Current number of pending recompute requests")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of pending recompute requests")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Recompute requests enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Recompute requests dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Recompute requests rejected by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Configured number of recompute workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing a request")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker latency per request in milliseconds", b)
	m.workerErrors = m.counter("worker_errors_total", "Requests a worker failed to process")

	m.storageQueryLatency = m.histogramVec("storage_query_latency_milliseconds", "Storage operation latency in milliseconds", b, "operation")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", b,
		"endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// RecordRecompute counts a completed recompute and its latency.
func RecordRecompute(latencyMs float64) {
	globalManager.recomputesTotal.Inc()
	globalManager.recomputeLatency.Observe(latencyMs)
}

// RecordRecomputeDuplicate counts a recompute request collapsed by the deduper.
func RecordRecomputeDuplicate() { globalManager.recomputesDuplicate.Inc() }

// RecordRecomputeError counts a failed recompute.
func RecordRecomputeError() { globalManager.recomputeErrors.Inc() }

// RecordInsufficientData counts a recompute with nothing to score.
func RecordInsufficientData() { globalManager.insufficientData.Inc() }

// RecordSnapshotAppended counts a persisted composite score snapshot.
func RecordSnapshotAppended() { globalManager.snapshotsAppended.Inc() }

// RecordMPIScore observes an adjusted MPI score. Scores must lie in [0,100].
func RecordMPIScore(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return fmt.Errorf("%w: mpi score %v", ErrInvalidObservation, score)
	}
	globalManager.mpiScore.Observe(score)
	return nil
}

// UpdateAthletesRanked sets the number of ranked athletes.
func UpdateAthletesRanked(count int) { globalManager.athletesRanked.Set(float64(count)) }

// RecordSessionRecorded counts a stored performance session.
func RecordSessionRecorded(sessionType string) {
	globalManager.sessionsRecorded.WithLabelValues(sessionType).Inc()
}

// RecordDailyLog counts a stored daily log entry.
func RecordDailyLog() { globalManager.dailyLogsRecorded.Inc() }

// RecordIntegrityFlagRaised counts a raised flag by severity.
func RecordIntegrityFlagRaised(severity string) {
	globalManager.integrityFlagsRaised.WithLabelValues(severity).Inc()
}

// RecordIntegrityFlagResolved counts a resolved flag.
func RecordIntegrityFlagResolved() { globalManager.integrityFlagsCleared.Inc() }

// RecordRankingSnapshot records a published ranking snapshot.
func RecordRankingSnapshot(durationMs float64, unixTime int64) {
	globalManager.rankingSnapshotDuration.Observe(durationMs)
	globalManager.rankingSnapshotLastUnix.Set(float64(unixTime))
	globalManager.rankingSnapshotCount.Inc()
}

// RecordRankingUpdateLatency records a ranking store write latency.
func RecordRankingUpdateLatency(latencyMs float64) { globalManager.rankingUpdateLatency.Observe(latencyMs) }

// RecordRankingQueryLatency records a ranking store read latency.
func RecordRankingQueryLatency(latencyMs float64) { globalManager.rankingQueryLatency.Observe(latencyMs) }

// RecordRankingCacheHit counts a leaderboard read served from the snapshot.
func RecordRankingCacheHit() { globalManager.rankingCacheHits.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// WorkerBusy adjusts the active worker gauge by delta.
func WorkerBusy(delta int) { globalManager.workerActiveCount.Add(float64(delta)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordStorageLatency records the latency of a named storage operation.
func RecordStorageLatency(operation string, latencyMs float64) {
	globalManager.storageQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }
