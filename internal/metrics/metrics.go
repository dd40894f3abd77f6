package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	KernelMflops = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dgemm_kernel_mflops",
		Help: "Measured Mflop/s per kernel and problem size",
	}, []string{"kernel", "size"})

	KernelIterations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dgemm_kernel_iterations",
		Help: "Iteration count the timing loop settled on per problem size",
	}, []string{"size"})

	SpeedupRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dgemm_speedup_ratio",
		Help: "Optimized over naive Mflop/s per problem size",
	}, []string{"size"})

	KernelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dgemm_kernel_call_duration_seconds",
		Help:    "Per-call duration derived from each timed batch",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 14),
	}, []string{"kernel"})

	TimingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dgemm_timing_attempts_total",
		Help: "Number of measurement attempts, including those below the noise floor",
	}, []string{"outcome"})

	BufferAllocatedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dgemm_buffer_allocated_bytes",
		Help: "Bytes currently held by the shared matrix buffer",
	})

	SizesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dgemm_sizes_completed_total",
		Help: "Number of problem sizes fully measured",
	})

	ExportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dgemm_export_errors_total",
		Help: "Failures while exporting results",
	}, []string{"sink"})
)

// RecordTimingAttempt counts one pass of the timing loop. belowFloor reports
// whether the loop will double and retry.
func RecordTimingAttempt(belowFloor bool) {
	if belowFloor {
		TimingAttempts.WithLabelValues("below_floor").Inc()
	} else {
		TimingAttempts.WithLabelValues("accepted").Inc()
	}
}

// RecordBatch observes the per-call duration of one kernel's timed batch.
func RecordBatch(kernel string, iterations int, elapsed time.Duration) {
	if iterations > 0 && elapsed > 0 {
		KernelCallDuration.WithLabelValues(kernel).Observe(elapsed.Seconds() / float64(iterations))
	}
}

// RecordResult publishes the final numbers for one problem size
func RecordResult(size, iterations int, optimized, naive string, optMflops, naiveMflops, ratio float64) {
	label := strconv.Itoa(size)
	KernelMflops.WithLabelValues(optimized, label).Set(optMflops)
	KernelMflops.WithLabelValues(naive, label).Set(naiveMflops)
	KernelIterations.WithLabelValues(label).Set(float64(iterations))
	SpeedupRatio.WithLabelValues(label).Set(ratio)
	SizesCompleted.Inc()
}

// RecordBufferBytes sets the live size of the shared buffer
func RecordBufferBytes(bytes int64) {
	BufferAllocatedBytes.Set(float64(bytes))
}

// RecordExportError counts a failed export to the named sink
func RecordExportError(sink string) {
	ExportErrors.WithLabelValues(sink).Inc()
}
