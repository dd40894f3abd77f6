// Package timing measures kernel throughput with an adaptive iteration count.
//
// A single call of a fast kernel on a small matrix can finish well inside
// the timer's resolution, and scheduler noise dominates any one short
// reading. Measure therefore doubles the number of back-to-back calls until
// the batch takes at least the noise floor, and derives the rate from that
// final batch. The optimized and naive kernels are driven through the same
// loop so they always share the iteration count and warm-up treatment.
package timing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/23skdu/longbow-dgemm/internal/clock"
	"github.com/23skdu/longbow-dgemm/internal/kernel"
	"github.com/23skdu/longbow-dgemm/internal/logger"
	"github.com/23skdu/longbow-dgemm/internal/metrics"
)

// DefaultThreshold is the noise floor: batches shorter than this are retried
// with twice the iterations.
const DefaultThreshold = 100 * time.Millisecond

var (
	ErrClockRegression = errors.New("clock went backwards during measurement")
	ErrIterationCap    = errors.New("iteration cap reached below the noise floor")
)

type Options struct {
	Threshold time.Duration
	// MaxIterations stops the doubling once exceeded. Zero means unbounded.
	MaxIterations int
}

func (o Options) threshold() time.Duration {
	if o.Threshold <= 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// Sample is the accepted batch for one problem size.
type Sample struct {
	Size             int
	Iterations       int
	OptimizedElapsed time.Duration
	NaiveElapsed     time.Duration
	// Attempts counts timed batches, including the accepted one.
	Attempts int
}

// Mflops converts a batch of iterations calls at size n taking seconds into
// millions of floating point operations per second. One n×n multiply costs
// 2n³ flops.
func Mflops(n, iterations int, seconds float64) float64 {
	fn := float64(n)
	gflops := 2e-9 * float64(iterations) * fn * fn * fn / seconds
	return gflops * 1000
}

func (s Sample) OptimizedSeconds() float64 { return s.OptimizedElapsed.Seconds() }
func (s Sample) NaiveSeconds() float64     { return s.NaiveElapsed.Seconds() }

func (s Sample) OptimizedMflops() float64 {
	return Mflops(s.Size, s.Iterations, s.OptimizedSeconds())
}

func (s Sample) NaiveMflops() float64 {
	return Mflops(s.Size, s.Iterations, s.NaiveSeconds())
}

// Ratio is optimized over naive throughput.
func (s Sample) Ratio() float64 {
	return s.OptimizedMflops() / s.NaiveMflops()
}

// Measure runs the adaptive loop for size n. a, b and c must hold at least
// n*n elements; c accumulates across every call and is never reset. ctx is
// checked before each attempt; kernel calls themselves are never interrupted.
//
// The optimized batch decides when the floor is reached. A naive batch that
// reads as zero also forces another round, so no rate is ever derived from a
// zero duration.
func Measure(ctx context.Context, clk clock.Clock, opts Options, n int, a, b, c []float64, optimized, naive kernel.Kernel) (Sample, error) {
	threshold := opts.threshold()
	s := Sample{Size: n}

	for iterations := 1; ; iterations *= 2 {
		if err := ctx.Err(); err != nil {
			return s, fmt.Errorf("size %d: %w", n, err)
		}
		if opts.MaxIterations > 0 && iterations > opts.MaxIterations {
			return s, fmt.Errorf("size %d: %w (%d iterations, last batch %v)",
				n, ErrIterationCap, s.Iterations, s.OptimizedElapsed)
		}

		// Warm-up, unmeasured, for both kernels on the same data.
		optimized.Multiply(n, a, b, c)
		naive.Multiply(n, a, b, c)

		var optElapsed, naiveElapsed time.Duration
		var err error

		optElapsed, err = timeBatch(clk, iterations, n, a, b, c, optimized)
		if err != nil {
			return s, fmt.Errorf("size %d, %s: %w", n, optimized.Name(), err)
		}
		naiveElapsed, err = timeBatch(clk, iterations, n, a, b, c, naive)
		if err != nil {
			return s, fmt.Errorf("size %d, %s: %w", n, naive.Name(), err)
		}

		s.Iterations = iterations
		s.OptimizedElapsed = optElapsed
		s.NaiveElapsed = naiveElapsed
		s.Attempts++

		below := optElapsed < threshold || naiveElapsed <= 0
		metrics.RecordTimingAttempt(below)
		metrics.RecordBatch(optimized.Name(), iterations, optElapsed)
		metrics.RecordBatch(naive.Name(), iterations, naiveElapsed)
		logger.Log.Debug("timing attempt",
			"size", n,
			"iterations", iterations,
			"optimized_seconds", optElapsed.Seconds(),
			"naive_seconds", naiveElapsed.Seconds(),
			"below_floor", below,
		)

		if !below {
			return s, nil
		}
	}
}

func timeBatch(clk clock.Clock, iterations, n int, a, b, c []float64, k kernel.Kernel) (time.Duration, error) {
	start, err := clk.Now()
	if err != nil {
		return 0, err
	}
	for it := 0; it < iterations; it++ {
		k.Multiply(n, a, b, c)
	}
	end, err := clk.Now()
	if err != nil {
		return 0, err
	}
	if end < start {
		return 0, fmt.Errorf("%w: %v -> %v", ErrClockRegression, start, end)
	}
	return end - start, nil
}
