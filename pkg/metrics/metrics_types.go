package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Sort Metrics
	SortsTotal       *prometheus.CounterVec
	SortDuration     *prometheus.HistogramVec
	PhaseDuration    *prometheus.HistogramVec
	RunsGenerated    prometheus.Counter
	MergePassesTotal prometheus.Counter
	MergesTotal      *prometheus.CounterVec
	RecordsSorted    prometheus.Counter

	// I/O Metrics
	IOReadsTotal        prometheus.Counter
	IOWritesTotal       prometheus.Counter
	IOBytesReadTotal    prometheus.Counter
	IOBytesWrittenTotal prometheus.Counter

	// System Metrics
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initSortMetrics()
	r.initIOMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
