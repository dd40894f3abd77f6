package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTimingAttempt(t *testing.T) {
	below := testutil.ToFloat64(TimingAttempts.WithLabelValues("below_floor"))
	accepted := testutil.ToFloat64(TimingAttempts.WithLabelValues("accepted"))

	RecordTimingAttempt(true)
	RecordTimingAttempt(false)

	if got := testutil.ToFloat64(TimingAttempts.WithLabelValues("below_floor")); got != below+1 {
		t.Errorf("expected below_floor %v, got %v", below+1, got)
	}
	if got := testutil.ToFloat64(TimingAttempts.WithLabelValues("accepted")); got != accepted+1 {
		t.Errorf("expected accepted %v, got %v", accepted+1, got)
	}
}

func TestRecordBatch(t *testing.T) {
	below := testutil.ToFloat64(TimingAttempts.WithLabelValues("below_floor"))

	RecordBatch("blocked", 2, 100*time.Millisecond)

	if testutil.CollectAndCount(KernelCallDuration) == 0 {
		t.Error("expected KernelCallDuration to have data")
	}
	if got := testutil.ToFloat64(TimingAttempts.WithLabelValues("below_floor")); got != below {
		t.Errorf("batches must not count as attempts, got %v want %v", got, below)
	}
}

func TestRecordBatchZeroElapsed(t *testing.T) {
	// Must not panic or divide by zero.
	RecordBatch("naive", 0, 0)
	RecordBatch("naive", 4, 0)
}

func TestRecordResult(t *testing.T) {
	before := testutil.ToFloat64(SizesCompleted)

	RecordResult(31, 2, "blocked", "naive", 1500, 500, 3)

	if got := testutil.ToFloat64(KernelMflops.WithLabelValues("blocked", "31")); got != 1500 {
		t.Errorf("expected optimized 1500, got %v", got)
	}
	if got := testutil.ToFloat64(KernelMflops.WithLabelValues("naive", "31")); got != 500 {
		t.Errorf("expected naive 500, got %v", got)
	}
	if got := testutil.ToFloat64(KernelIterations.WithLabelValues("31")); got != 2 {
		t.Errorf("expected iterations 2, got %v", got)
	}
	if got := testutil.ToFloat64(SpeedupRatio.WithLabelValues("31")); got != 3 {
		t.Errorf("expected ratio 3, got %v", got)
	}
	if got := testutil.ToFloat64(SizesCompleted); got != before+1 {
		t.Errorf("expected sizes completed %v, got %v", before+1, got)
	}
}

func TestRecordBufferBytes(t *testing.T) {
	RecordBufferBytes(3 * 769 * 769 * 8)
	if got := testutil.ToFloat64(BufferAllocatedBytes); got != 3*769*769*8 {
		t.Errorf("unexpected gauge value %v", got)
	}
	RecordBufferBytes(0)
	if got := testutil.ToFloat64(BufferAllocatedBytes); got != 0 {
		t.Errorf("expected 0 after release, got %v", got)
	}
}

func TestRecordExportError(t *testing.T) {
	before := testutil.ToFloat64(ExportErrors.WithLabelValues("flight"))
	RecordExportError("flight")
	if got := testutil.ToFloat64(ExportErrors.WithLabelValues("flight")); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}
