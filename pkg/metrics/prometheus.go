// Package metrics provides Prometheus metrics for the match-score pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingress and validation
	updatesValidated prometheus.Counter
	updatesRejected  *prometheus.CounterVec

	// Publish decision
	updatesPublished  *prometheus.CounterVec
	updatesSuppressed prometheus.Counter
	publishRetries    prometheus.Counter
	publishFailures   prometheus.Counter

	// Snapshot table
	snapshotEntries   prometheus.Gauge
	snapshotEvictions prometheus.Counter

	// Transport
	busPublished    *prometheus.CounterVec
	busDelivered    *prometheus.CounterVec
	busBackpressure *prometheus.CounterVec
	busDepth        *prometheus.GaugeVec

	// Consumer
	consumerAcks        *prometheus.CounterVec
	consumerRetries     *prometheus.CounterVec
	consumerQuarantines *prometheus.CounterVec
	consumerExhausted   *prometheus.CounterVec

	// Storage
	upsertLatency prometheus.Histogram
	storeErrors   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Live broadcast
	wsClients prometheus.Gauge

	// Tracking events
	trackingEvents     prometheus.Counter
	trackingDuplicates prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "thomascup",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is naturally long
	auto := promauto.With(m.registry)

	m.updatesValidated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "updates_validated_total",
		Help:      "Total number of inbound score updates that passed validation",
	})

	m.updatesRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "updates_rejected_total",
			Help:      "Total number of inbound score updates rejected by validation",
		},
		[]string{"reason"},
	)

	m.updatesPublished = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "updates_published_total",
			Help:      "Total number of updates emitted to the transport by topic",
		},
		[]string{"topic"},
	)

	m.updatesSuppressed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "updates_suppressed_total",
		Help:      "Total number of updates suppressed as stale or unchanged",
	})

	m.publishRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_retries_total",
		Help:      "Total number of transport publish retries",
	})

	m.publishFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_failures_total",
		Help:      "Total number of publishes that exhausted their retry budget",
	})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_entries",
		Help:      "Current number of per-match snapshot entries held for suppression",
	})

	m.snapshotEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_evictions_total",
		Help:      "Total number of snapshot entries evicted from the bounded table",
	})

	m.busPublished = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bus_published_total",
			Help:      "Total number of messages accepted by the bus by topic",
		},
		[]string{"topic"},
	)

	m.busDelivered = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bus_delivered_total",
			Help:      "Total number of messages delivered to consumers by topic",
		},
		[]string{"topic"},
	)

	m.busBackpressure = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bus_backpressure_total",
			Help:      "Total number of publishes refused because a partition was full",
		},
		[]string{"topic"},
	)

	m.busDepth = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bus_partition_depth",
			Help:      "Current number of buffered messages per topic partition",
		},
		[]string{"topic", "partition"},
	)

	m.consumerAcks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "consumer_acks_total",
			Help:      "Total number of events applied to storage by topic",
		},
		[]string{"topic"},
	)

	m.consumerRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "consumer_retries_total",
			Help:      "Total number of transient apply failures scheduled for retry",
		},
		[]string{"topic"},
	)

	m.consumerQuarantines = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "consumer_quarantines_total",
			Help:      "Total number of malformed events quarantined without retry",
		},
		[]string{"topic"},
	)

	m.consumerExhausted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "consumer_retry_exhausted_total",
			Help:      "Total number of events dropped after the retry budget was spent",
		},
		[]string{"topic"},
	)

	m.upsertLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upsert_latency_milliseconds",
		Help:      "Histogram of storage upsert latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_errors_total",
			Help:      "Total number of storage errors by kind",
		},
		[]string{"kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_clients",
		Help:      "Current number of connected live-score websocket clients",
	})

	m.trackingEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracking_events_total",
		Help:      "Total number of tracking events accepted",
	})

	m.trackingDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracking_duplicates_total",
		Help:      "Total number of duplicate tracking events suppressed",
	})
}

// GetRegistry returns the custom Prometheus registry used by the global
// manager, for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers record against the global manager.

func RecordUpdateValidated() { globalManager.updatesValidated.Inc() }

func RecordUpdateRejected(reason string) {
	globalManager.updatesRejected.WithLabelValues(reason).Inc()
}

func RecordPublish(topic string) {
	globalManager.updatesPublished.WithLabelValues(topic).Inc()
}

func RecordSuppression() { globalManager.updatesSuppressed.Inc() }

func RecordPublishRetry() { globalManager.publishRetries.Inc() }

func RecordPublishFailure() { globalManager.publishFailures.Inc() }

func UpdateSnapshotEntries(n int) { globalManager.snapshotEntries.Set(float64(n)) }

func RecordSnapshotEviction() { globalManager.snapshotEvictions.Inc() }

func RecordBusPublish(topic string) {
	globalManager.busPublished.WithLabelValues(topic).Inc()
}

func RecordBusDelivery(topic string) {
	globalManager.busDelivered.WithLabelValues(topic).Inc()
}

func RecordBusBackpressure(topic string) {
	globalManager.busBackpressure.WithLabelValues(topic).Inc()
}

func UpdateBusDepth(topic, partition string, depth int) {
	globalManager.busDepth.WithLabelValues(topic, partition).Set(float64(depth))
}

func RecordConsumerAck(topic string) {
	globalManager.consumerAcks.WithLabelValues(topic).Inc()
}

func RecordConsumerRetry(topic string) {
	globalManager.consumerRetries.WithLabelValues(topic).Inc()
}

func RecordConsumerQuarantine(topic string) {
	globalManager.consumerQuarantines.WithLabelValues(topic).Inc()
}

func RecordConsumerExhausted(topic string) {
	globalManager.consumerExhausted.WithLabelValues(topic).Inc()
}

func RecordUpsertLatency(ms float64) { globalManager.upsertLatency.Observe(ms) }

func RecordStoreError(kind string) {
	globalManager.storeErrors.WithLabelValues(kind).Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func UpdateWSClients(n int) { globalManager.wsClients.Set(float64(n)) }

func RecordTrackingEvent() { globalManager.trackingEvents.Inc() }

func RecordTrackingDuplicate() { globalManager.trackingDuplicates.Inc() }
