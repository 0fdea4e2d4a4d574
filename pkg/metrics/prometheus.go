// Package metrics provides Prometheus metrics for the courtline pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingest accounting
	recordsIngested    *prometheus.CounterVec
	recordsQuarantined *prometheus.CounterVec
	peopleMerged       prometheus.Counter

	// Enrichment
	geocodeCacheHits  prometheus.Counter
	geocodeResolved   prometheus.Counter
	geocodeUnresolved prometheus.Counter
	geocodeLatency    prometheus.Histogram
	genderLabels      *prometheus.CounterVec
	enrichErrors      prometheus.Counter

	// Worker pool / queue health
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram

	// Run-level
	peopleTotal     prometheus.Gauge
	runDurationSecs prometheus.Gauge
	runsCompleted   prometheus.Counter

	// Results API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtline",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsIngested = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_ingested_total",
			Help:      "Raw records decoded from the export, by kind",
		},
		[]string{"kind"},
	)

	m.recordsQuarantined = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_quarantined_total",
			Help:      "Records excluded from processing, by reason code",
		},
		[]string{"reason"},
	)

	m.peopleMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "people_merged_total",
		Help:      "Duplicate person records absorbed by identity resolution",
	})

	m.geocodeCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_cache_hits_total",
		Help:      "Locality lookups answered from the GeoFix cache",
	})

	m.geocodeResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_resolved_total",
		Help:      "Localities resolved to coordinates",
	})

	m.geocodeUnresolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_unresolved_total",
		Help:      "Localities that could not be resolved (nil coordinates)",
	})

	m.geocodeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_latency_milliseconds",
		Help:      "External geocoding call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.genderLabels = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "gender_labels_total",
			Help:      "Gender inference outcomes, by label",
		},
		[]string{"label"},
	)

	m.enrichErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_errors_total",
		Help:      "Per-person enrichment failures recovered as null fields",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the enrichment task queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the enrichment task queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of enrichment workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_latency_milliseconds",
		Help:      "Per-person enrichment latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.peopleTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "people_total",
		Help:      "People in the normalized entity set after dedupe",
	})

	m.runDurationSecs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last completed run",
	})

	m.runsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_completed_total",
		Help:      "Pipeline runs that completed and emitted output",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Results API requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "Results API request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// GetRegistry returns the registry backing the global manager, for
// promhttp exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers operating on the global manager.

// RecordIngested counts one decoded raw record of the given kind.
func RecordIngested(kind string) {
	if globalManager.enabled {
		globalManager.recordsIngested.WithLabelValues(kind).Inc()
	}
}

// RecordQuarantined counts one quarantined record with its reason code.
func RecordQuarantined(reason string) {
	if globalManager.enabled {
		globalManager.recordsQuarantined.WithLabelValues(reason).Inc()
	}
}

// RecordMerge counts one absorbed duplicate person record.
func RecordMerge() {
	if globalManager.enabled {
		globalManager.peopleMerged.Inc()
	}
}

// RecordGeocodeCacheHit counts a cache-answered locality lookup.
func RecordGeocodeCacheHit() {
	if globalManager.enabled {
		globalManager.geocodeCacheHits.Inc()
	}
}

// RecordGeocodeResolved counts a successful resolution.
func RecordGeocodeResolved() {
	if globalManager.enabled {
		globalManager.geocodeResolved.Inc()
	}
}

// RecordGeocodeUnresolved counts a failed resolution.
func RecordGeocodeUnresolved() {
	if globalManager.enabled {
		globalManager.geocodeUnresolved.Inc()
	}
}

// RecordGeocodeLatency observes one external geocoding call, in ms.
func RecordGeocodeLatency(ms float64) {
	if globalManager.enabled {
		globalManager.geocodeLatency.Observe(ms)
	}
}

// RecordGenderLabel counts one inference outcome.
func RecordGenderLabel(label string) {
	if globalManager.enabled {
		globalManager.genderLabels.WithLabelValues(label).Inc()
	}
}

// RecordEnrichmentError counts a recovered per-person enrichment failure.
func RecordEnrichmentError() {
	if globalManager.enabled {
		globalManager.enrichErrors.Inc()
	}
}

// RecordWorkerLatency observes one per-person enrichment, in ms.
func RecordWorkerLatency(ms float64) {
	if globalManager.enabled {
		globalManager.workerLatency.Observe(ms)
	}
}

// UpdateQueueSize sets the current enrichment queue depth.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateWorkerCount sets the number of enrichment workers.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdatePeopleTotal sets the size of the normalized person set.
func UpdatePeopleTotal(count int) {
	if globalManager.enabled {
		globalManager.peopleTotal.Set(float64(count))
	}
}

// RecordRunCompleted marks a run that emitted output, with its duration.
func RecordRunCompleted(seconds float64) {
	if globalManager.enabled {
		globalManager.runDurationSecs.Set(seconds)
		globalManager.runsCompleted.Inc()
	}
}

// RecordHTTPRequest counts one results API request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes one results API request, in ms.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
	}
}
