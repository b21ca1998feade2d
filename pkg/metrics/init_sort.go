package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSortMetrics() {
	r.SortsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "extsort_sorts_total",
			Help: "Total number of sort invocations",
		},
		[]string{"mode", "status"},
	)

	r.SortDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extsort_sort_duration_seconds",
			Help:    "End-to-end sort duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"mode"},
	)

	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extsort_phase_duration_seconds",
			Help:    "Duration of the partition phase, each merge pass and the final merge",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"phase"},
	)

	r.RunsGenerated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_runs_generated_total",
			Help: "Sorted runs written by the partition phase",
		},
	)

	r.MergePassesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_merge_passes_total",
			Help: "Size-doubling merge passes completed",
		},
	)

	r.MergesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "extsort_merges_total",
			Help: "Pairwise merges and verbatim copies by form",
		},
		[]string{"form"},
	)

	r.RecordsSorted = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_records_sorted_total",
			Help: "Records written to sorted outputs",
		},
	)
}
