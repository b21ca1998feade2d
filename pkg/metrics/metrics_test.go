package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.SortsTotal == nil {
		t.Error("SortsTotal not initialized")
	}
	if r.PhaseDuration == nil {
		t.Error("PhaseDuration not initialized")
	}
	if r.IOBytesWrittenTotal == nil {
		t.Error("IOBytesWrittenTotal not initialized")
	}
	if r.GoRoutines == nil {
		t.Error("GoRoutines not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordSort(t *testing.T) {
	r := NewRegistry()

	r.RecordSort("external", "success", 100*time.Millisecond, 16)
	r.RecordSort("external", "success", 200*time.Millisecond, 18)
	r.RecordSort("external", "error", 5*time.Millisecond, 99)

	success, err := r.SortsTotal.GetMetricWithLabelValues("external", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, success); got != 2 {
		t.Errorf("success sorts = %v, want 2", got)
	}

	failed, err := r.SortsTotal.GetMetricWithLabelValues("external", "error")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, failed); got != 1 {
		t.Errorf("failed sorts = %v, want 1", got)
	}

	// Failed sorts do not count their records.
	if got := counterValue(t, r.RecordsSorted); got != 34 {
		t.Errorf("RecordsSorted = %v, want 34", got)
	}

	histogram, err := r.SortDuration.GetMetricWithLabelValues("external")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Metric).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Histogram sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
}

func TestRecordPhase(t *testing.T) {
	r := NewRegistry()

	r.RecordPhase("partition", 10*time.Millisecond)
	r.RecordPhase("merge", 20*time.Millisecond)
	r.RecordPhase("merge", 30*time.Millisecond)
	r.RecordPhase("final", 5*time.Millisecond)

	if got := counterValue(t, r.MergePassesTotal); got != 2 {
		t.Errorf("MergePassesTotal = %v, want 2", got)
	}

	histogram, err := r.PhaseDuration.GetMetricWithLabelValues("merge")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Metric).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("merge phase samples = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordRunsAndMerges(t *testing.T) {
	r := NewRegistry()

	r.RecordRuns(5)
	r.RecordMerge(FormEqual)
	r.RecordMerge(FormEqual)
	r.RecordMerge(FormUnequal)
	r.RecordMerge(FormCopy)

	if got := counterValue(t, r.RunsGenerated); got != 5 {
		t.Errorf("RunsGenerated = %v, want 5", got)
	}

	tests := []struct {
		form string
		want float64
	}{
		{FormEqual, 2},
		{FormUnequal, 1},
		{FormCopy, 1},
	}
	for _, tt := range tests {
		t.Run(tt.form, func(t *testing.T) {
			c, err := r.MergesTotal.GetMetricWithLabelValues(tt.form)
			if err != nil {
				t.Fatalf("Failed to get metric: %v", err)
			}
			if got := counterValue(t, c); got != tt.want {
				t.Errorf("merges{form=%s} = %v, want %v", tt.form, got, tt.want)
			}
		})
	}
}

func TestRecordIO(t *testing.T) {
	r := NewRegistry()

	r.RecordIO(3, 2, 48, 32)
	r.RecordIO(1, 1, 16, 16)

	tests := []struct {
		name     string
		counter  prometheus.Counter
		expected float64
	}{
		{"IOReadsTotal", r.IOReadsTotal, 4},
		{"IOWritesTotal", r.IOWritesTotal, 3},
		{"IOBytesReadTotal", r.IOBytesReadTotal, 64},
		{"IOBytesWrittenTotal", r.IOBytesWrittenTotal, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterValue(t, tt.counter); got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	var metric dto.Metric
	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("GoRoutines = %v, want >= 1", metric.Gauge.GetValue())
	}

	if err := r.MemorySysBytes.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() <= 0 {
		t.Errorf("MemorySysBytes = %v, want > 0", metric.Gauge.GetValue())
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordSort("internal", "success", time.Millisecond, 8)

	path := filepath.Join(t.TempDir(), "extsort.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`extsort_sorts_total{mode="internal",status="success"} 1`,
		"extsort_records_sorted_total 8",
		"extsort_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	r := NewRegistry()
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("expected error for a path in a missing directory")
	}
}
