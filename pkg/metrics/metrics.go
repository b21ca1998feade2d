package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Merge forms recorded by RecordMerge.
const (
	FormEqual   = "equal"
	FormUnequal = "unequal"
	FormCopy    = "copy"
)

// RecordSort records one finished sort invocation.
// mode is "external" or "internal"; status is "success" or "error".
func (r *Registry) RecordSort(mode, status string, duration time.Duration, records int64) {
	r.SortsTotal.WithLabelValues(mode, status).Inc()
	r.SortDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if status == "success" {
		r.RecordsSorted.Add(float64(records))
	}
}

// RecordPhase records the duration of one phase: "partition", "merge" or "final".
func (r *Registry) RecordPhase(phase string, duration time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
	if phase == "merge" {
		r.MergePassesTotal.Inc()
	}
}

// RecordRuns adds the run count produced by a partition phase.
func (r *Registry) RecordRuns(runs int) {
	r.RunsGenerated.Add(float64(runs))
}

// RecordMerge counts one merge or verbatim copy.
func (r *Registry) RecordMerge(form string) {
	r.MergesTotal.WithLabelValues(form).Inc()
}

// RecordIO adds transfer counters taken from a file's stats.
func (r *Registry) RecordIO(reads, writes, bytesRead, bytesWritten int64) {
	r.IOReadsTotal.Add(float64(reads))
	r.IOWritesTotal.Add(float64(writes))
	r.IOBytesReadTotal.Add(float64(bytesRead))
	r.IOBytesWrittenTotal.Add(float64(bytesWritten))
}

// UpdateSystemMetrics samples goroutine count and memory usage.
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// WriteTextfile samples system metrics and writes every metric in the
// text exposition format to path, for node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	r.UpdateSystemMetrics()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
