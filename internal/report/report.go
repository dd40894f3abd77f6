// Package report prints benchmark results as plain text.
package report

import (
	"fmt"
	"io"
)

const separator = "_________________________________________________"

// Row is the pair of rates measured for one problem size.
type Row struct {
	Size            int
	OptimizedMflops float64
	NaiveMflops     float64
}

// Ratio is how many times faster the optimized kernel ran.
func (r Row) Ratio() float64 {
	return r.OptimizedMflops / r.NaiveMflops
}

type Reporter struct {
	w io.Writer
}

func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Header names the optimized kernel being compared against the baseline.
func (r *Reporter) Header(description string) error {
	_, err := fmt.Fprintf(r.w, "Description:\t%s\n\n", description)
	return err
}

// Row prints both rates and their ratio for one size.
func (r *Reporter) Row(row Row) error {
	_, err := fmt.Fprintf(r.w,
		"Size: %d\tMflop/s: %8g\t\nSize: %d\tMflop/s naive: %8g\t\n\nratio: %4.2f\n%s\n",
		row.Size, row.OptimizedMflops,
		row.Size, row.NaiveMflops,
		row.Ratio(),
		separator,
	)
	return err
}

// Summary names the sizes with the highest and lowest ratio.
func (r *Reporter) Summary(rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(r.w, "Sizes: 0")
		return err
	}
	best, worst := rows[0], rows[0]
	for _, row := range rows[1:] {
		if row.Ratio() > best.Ratio() {
			best = row
		}
		if row.Ratio() < worst.Ratio() {
			worst = row
		}
	}
	_, err := fmt.Fprintf(r.w, "Sizes: %d\nBest ratio: %4.2f at size %d\nWorst ratio: %4.2f at size %d\n",
		len(rows), best.Ratio(), best.Size, worst.Ratio(), worst.Size)
	return err
}
