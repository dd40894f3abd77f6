// Package kernel defines the contract every square DGEMM implementation
// satisfies. Matrices are n×n, column-major, stored in the first n*n
// elements of each slice.
package kernel

// Kernel accumulates C += A·B. Implementations never write A or B and keep
// no state between calls.
type Kernel interface {
	Name() string
	Description() string
	Multiply(n int, a, b, c []float64)
}

// Func adapts a plain function to Kernel.
type Func struct {
	Label string
	Desc  string
	Fn    func(n int, a, b, c []float64)
}

func (f Func) Name() string        { return f.Label }
func (f Func) Description() string { return f.Desc }

func (f Func) Multiply(n int, a, b, c []float64) {
	f.Fn(n, a, b, c)
}
