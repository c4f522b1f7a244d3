package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poolstats"

type Metrics struct {
	registry *prometheus.Registry

	// Counters
	collectionsTotal  *prometheus.CounterVec
	collectionErrors  *prometheus.CounterVec
	refreshesTotal    *prometheus.CounterVec
	refreshErrors     *prometheus.CounterVec
	rejectedReadings  *prometheus.CounterVec
	ingestedReadings  *prometheus.CounterVec
	httpRequestsTotal *prometheus.CounterVec

	// Gauges
	peakOccupancy       *prometheus.GaugeVec
	peakUtilization     *prometheus.GaugeVec
	circuitBreakerState *prometheus.GaugeVec
	websocketClients    prometheus.Gauge

	// Histograms
	collectionLatency *prometheus.HistogramVec
	refreshDuration   *prometheus.HistogramVec
	httpDuration      *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, which also export Go runtime and process stats.
func Get() *Metrics {
	once.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		instance = newMetrics(reg)
	})
	return instance
}

// New returns metrics on a private registry.
func New() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		collectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_total",
			Help:      "Reading collections per week.",
		}, []string{"week_id"}),
		collectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_errors_total",
			Help:      "Failed reading collections per week.",
		}, []string{"week_id"}),
		refreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Summary refreshes per week.",
		}, []string{"week_id"}),
		refreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Failed summary refreshes per week.",
		}, []string{"week_id"}),
		rejectedReadings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_readings_total",
			Help:      "Readings excluded from aggregation, by reason.",
		}, []string{"week_id", "reason"}),
		ingestedReadings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_readings_total",
			Help:      "Readings stored per week.",
		}, []string{"week_id"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		peakOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_occupancy",
			Help:      "Highest hourly maximum occupancy of the week.",
		}, []string{"week_id"}),
		peakUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_utilization_percent",
			Help:      "Highest hourly utilization rate of the week.",
		}, []string{"week_id"}),
		circuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"name"}),
		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
		collectionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_duration_seconds",
			Help:      "Reading collection latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"week_id"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "End-to-end refresh pipeline latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"week_id"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.collectionsTotal,
		m.collectionErrors,
		m.refreshesTotal,
		m.refreshErrors,
		m.rejectedReadings,
		m.ingestedReadings,
		m.httpRequestsTotal,
		m.peakOccupancy,
		m.peakUtilization,
		m.circuitBreakerState,
		m.websocketClients,
		m.collectionLatency,
		m.refreshDuration,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncCollections(weekID string) {
	if m == nil {
		return
	}
	m.collectionsTotal.WithLabelValues(weekID).Inc()
}

func (m *Metrics) IncCollectionErrors(weekID string) {
	if m == nil {
		return
	}
	m.collectionErrors.WithLabelValues(weekID).Inc()
}

func (m *Metrics) SetCollectionLatency(weekID string, d time.Duration) {
	if m == nil {
		return
	}
	m.collectionLatency.WithLabelValues(weekID).Observe(d.Seconds())
}

func (m *Metrics) IncRefreshes(weekID string) {
	if m == nil {
		return
	}
	m.refreshesTotal.WithLabelValues(weekID).Inc()
}

func (m *Metrics) IncRefreshErrors(weekID string) {
	if m == nil {
		return
	}
	m.refreshErrors.WithLabelValues(weekID).Inc()
}

func (m *Metrics) SetRefreshDuration(weekID string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.WithLabelValues(weekID).Observe(d.Seconds())
}

func (m *Metrics) AddRejectedReadings(weekID, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejectedReadings.WithLabelValues(weekID, reason).Add(float64(n))
}

func (m *Metrics) AddIngestedReadings(weekID string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestedReadings.WithLabelValues(weekID).Add(float64(n))
}

func (m *Metrics) SetPeak(weekID string, occupancy int, utilization float64) {
	if m == nil {
		return
	}
	m.peakOccupancy.WithLabelValues(weekID).Set(float64(occupancy))
	m.peakUtilization.WithLabelValues(weekID).Set(utilization)
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) SetWebSocketClients(n int) {
	if m == nil {
		return
	}
	m.websocketClients.Set(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
