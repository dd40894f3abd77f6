// Package naive is the reference triple-loop DGEMM used as the speed baseline.
package naive

const Description = "Naive, three-loop dgemm."

type Kernel struct{}

func New() Kernel {
	return Kernel{}
}

func (Kernel) Name() string        { return "naive" }
func (Kernel) Description() string { return Description }

// Multiply computes C += A·B with i, j, k loop order.
func (Kernel) Multiply(n int, a, b, c []float64) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cij := c[i+j*n]
			for k := 0; k < n; k++ {
				cij += a[i+k*n] * b[k+j*n]
			}
			c[i+j*n] = cij
		}
	}
}
