// Package bench drives the optimized and naive kernels across a list of
// problem sizes using one shared buffer.
package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/23skdu/longbow-dgemm/internal/clock"
	"github.com/23skdu/longbow-dgemm/internal/kernel"
	"github.com/23skdu/longbow-dgemm/internal/logger"
	"github.com/23skdu/longbow-dgemm/internal/metrics"
	"github.com/23skdu/longbow-dgemm/internal/report"
	"github.com/23skdu/longbow-dgemm/internal/timing"
)

var ErrInvalidSizes = errors.New("invalid problem sizes")

// Filler overwrites a slice with fresh random values.
type Filler interface {
	Fill(p []float64)
}

// Observer is told when each size starts and finishes.
type Observer interface {
	SizeStarted(n int)
	SizeDone(r Result)
}

// Result is the outcome for one problem size.
type Result struct {
	timing.Sample
	OptimizedKernel string
	NaiveKernel     string
	OptimizedMflops float64
	NaiveMflops     float64
	Ratio           float64
}

func (r Result) Row() report.Row {
	return report.Row{Size: r.Size, OptimizedMflops: r.OptimizedMflops, NaiveMflops: r.NaiveMflops}
}

// Rows converts results for the reporter.
func Rows(results []Result) []report.Row {
	rows := make([]report.Row, len(results))
	for i, r := range results {
		rows[i] = r.Row()
	}
	return rows
}

type Runner struct {
	Sizes     []int
	Options   timing.Options
	Optimized kernel.Kernel
	Naive     kernel.Kernel
	Clock     clock.Clock
	Filler    Filler
	Allocator Allocator
	Reporter  *report.Reporter
	Observer  Observer
}

// ValidateSizes checks that the list is non-empty, positive, and ends with
// its maximum, which sizes the shared buffer.
func ValidateSizes(sizes []int) error {
	if len(sizes) == 0 {
		return fmt.Errorf("%w: empty list", ErrInvalidSizes)
	}
	max := 0
	for _, n := range sizes {
		if n <= 0 {
			return fmt.Errorf("%w: %d is not positive", ErrInvalidSizes, n)
		}
		if n > max {
			max = n
		}
	}
	if last := sizes[len(sizes)-1]; last != max {
		return fmt.Errorf("%w: last size %d is not the maximum %d", ErrInvalidSizes, last, max)
	}
	return nil
}

// Run measures every size in order and returns one Result per size. The
// shared buffer is released before Run returns on every path, including
// cancellation of ctx, which is checked between sizes and timing attempts.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if err := ValidateSizes(r.Sizes); err != nil {
		return nil, err
	}
	alloc := r.Allocator
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	nmax := r.Sizes[len(r.Sizes)-1]

	if r.Reporter != nil {
		if err := r.Reporter.Header(r.Optimized.Description()); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	buf, err := NewBuffer(alloc, nmax)
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	logger.Log.Info("buffer allocated", "nmax", nmax, "elements", buf.Len(), "bytes", buf.Len()*elemSize)

	results := make([]Result, 0, len(r.Sizes))
	for _, n := range r.Sizes {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("interrupted before size %d: %w", n, err)
		}
		if r.Observer != nil {
			r.Observer.SizeStarted(n)
		}
		res, err := r.runSize(ctx, buf, n)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if r.Observer != nil {
			r.Observer.SizeDone(res)
		}

		if r.Reporter != nil {
			if err := r.Reporter.Row(res.Row()); err != nil {
				return results, fmt.Errorf("writing size %d: %w", n, err)
			}
		}
	}
	return results, nil
}

func (r *Runner) runSize(ctx context.Context, buf *Buffer, n int) (Result, error) {
	a, b, c, err := buf.Views(n)
	if err != nil {
		return Result{}, err
	}
	r.Filler.Fill(a)
	r.Filler.Fill(b)
	r.Filler.Fill(c)

	s, err := timing.Measure(ctx, r.Clock, r.Options, n, a, b, c, r.Optimized, r.Naive)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Sample:          s,
		OptimizedKernel: r.Optimized.Name(),
		NaiveKernel:     r.Naive.Name(),
		OptimizedMflops: s.OptimizedMflops(),
		NaiveMflops:     s.NaiveMflops(),
	}
	res.Ratio = res.Row().Ratio()

	metrics.RecordResult(n, s.Iterations, res.OptimizedKernel, res.NaiveKernel, res.OptimizedMflops, res.NaiveMflops, res.Ratio)
	logger.Log.Info("size measured",
		"size", n,
		"iterations", s.Iterations,
		"attempts", s.Attempts,
		"mflops", res.OptimizedMflops,
		"mflops_naive", res.NaiveMflops,
		"ratio", res.Ratio,
	)
	return res, nil
}
