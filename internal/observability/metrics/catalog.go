package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// CatalogMetrics implements ports.ViewObserver.
type CatalogMetrics struct {
	service string

	recomputeTotal    *prometheus.CounterVec
	filteredSize      *prometheus.HistogramVec
	storeLoadTotal    *prometheus.CounterVec
	storeLoadDuration *prometheus.HistogramVec
	storeSize         *prometheus.GaugeVec
	breakerState      *prometheus.GaugeVec
	changeEventsTotal *prometheus.CounterVec
}

func NewCatalogMetrics(service string, registerer prometheus.Registerer) *CatalogMetrics {
	recomputeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "recompute_total",
			Help:      "Filtered view recomputations by empty reason (\"none\" when rows remain).",
		},
		[]string{"service", "reason"},
	)
	filteredSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "filtered_processes",
			Help:      "Distribution of filtered view sizes per recompute.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	storeLoadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "loads_total",
			Help:      "Process store loads from the backend by status.",
		},
		[]string{"service", "status"},
	)
	storeLoadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "load_duration_seconds",
			Help:      "Process store load duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	storeSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "processes",
			Help:      "Number of processes held by the store after the last successful load.",
		},
		[]string{"service"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)
	changeEventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "process_changes_total",
			Help:      "Process change events handled, by kind and whether they came from this instance.",
		},
		[]string{"service", "kind", "source"},
	)

	registerer.MustRegister(
		recomputeTotal,
		filteredSize,
		storeLoadTotal,
		storeLoadDuration,
		storeSize,
		breakerState,
		changeEventsTotal,
	)

	return &CatalogMetrics{
		service:           service,
		recomputeTotal:    recomputeTotal,
		filteredSize:      filteredSize,
		storeLoadTotal:    storeLoadTotal,
		storeLoadDuration: storeLoadDuration,
		storeSize:         storeSize,
		breakerState:      breakerState,
		changeEventsTotal: changeEventsTotal,
	}
}

func (m *CatalogMetrics) ObserveRecompute(reason domain.EmptyReason, filtered, _ int) {
	label := string(reason)
	if label == "" {
		label = "none"
	}
	m.recomputeTotal.WithLabelValues(m.service, label).Inc()
	m.filteredSize.WithLabelValues(m.service).Observe(float64(filtered))
}

func (m *CatalogMetrics) ObserveStoreLoad(duration time.Duration, size int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.storeLoadTotal.WithLabelValues(m.service, status).Inc()
	m.storeLoadDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
	if err == nil {
		m.storeSize.WithLabelValues(m.service).Set(float64(size))
	}
}

// ObserveBreakerState matches resilience.Config.OnStateChange.
func (m *CatalogMetrics) ObserveBreakerState(operation, state string) {
	value := 0.0
	switch state {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}

func (m *CatalogMetrics) ObserveChangeEvent(kind domain.ChangeKind, local bool) {
	source := "remote"
	if local {
		source = "local"
	}
	m.changeEventsTotal.WithLabelValues(m.service, string(kind), source).Inc()
}
