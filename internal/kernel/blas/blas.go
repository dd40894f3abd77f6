// Package blas wraps gonum's DGEMM as an alternative optimized kernel.
package blas

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

const Description = "gonum blas64 dgemm."

type Kernel struct{}

func New() Kernel {
	return Kernel{}
}

func (Kernel) Name() string        { return "blas" }
func (Kernel) Description() string { return Description }

// Multiply computes C += A·B. blas64 is row-major, so the column-major
// operands are read as their transposes and the product is formed as
// Cᵀ += Bᵀ·Aᵀ.
func (Kernel) Multiply(n int, a, b, c []float64) {
	if n == 0 {
		return
	}
	at := blas64.General{Rows: n, Cols: n, Stride: n, Data: a[:n*n]}
	bt := blas64.General{Rows: n, Cols: n, Stride: n, Data: b[:n*n]}
	ct := blas64.General{Rows: n, Cols: n, Stride: n, Data: c[:n*n]}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, bt, at, 1, ct)
}
