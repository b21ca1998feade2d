package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIOMetrics() {
	r.IOReadsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_io_reads_total",
			Help: "Positioned block reads issued",
		},
	)

	r.IOWritesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_io_writes_total",
			Help: "Positioned block writes issued",
		},
	)

	r.IOBytesReadTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_io_read_bytes_total",
			Help: "Bytes read from input, scratch and output files",
		},
	)

	r.IOBytesWrittenTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "extsort_io_written_bytes_total",
			Help: "Bytes written to scratch and output files",
		},
	)
}
