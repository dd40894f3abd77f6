// Package blocked implements a cache-tiled DGEMM.
package blocked

const (
	Description = "Simple blocked dgemm."

	// DefaultBlockSize keeps three 41×41 tiles of float64 (about 40KB) close
	// to a typical L1/L2 boundary.
	DefaultBlockSize = 41
)

type Kernel struct {
	blockSize int
}

// New returns a blocked kernel. Non-positive sizes select DefaultBlockSize.
func New(blockSize int) Kernel {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return Kernel{blockSize: blockSize}
}

func (k Kernel) BlockSize() int    { return k.blockSize }
func (Kernel) Name() string        { return "blocked" }
func (Kernel) Description() string { return Description }

// Multiply computes C += A·B one tile at a time. Edge tiles shrink to fit n.
func (k Kernel) Multiply(n int, a, b, c []float64) {
	bs := k.blockSize
	for i := 0; i < n; i += bs {
		m := min(bs, n-i)
		for j := 0; j < n; j += bs {
			nn := min(bs, n-j)
			for l := 0; l < n; l += bs {
				kk := min(bs, n-l)
				doBlock(n, m, nn, kk, a[i+l*n:], b[l+j*n:], c[i+j*n:])
			}
		}
	}
}

// doBlock computes C += A·B for an m×kk tile of A and a kk×nn tile of B,
// where lda is the leading dimension shared by all three matrices.
func doBlock(lda, m, nn, kk int, a, b, c []float64) {
	for i := 0; i < m; i++ {
		for j := 0; j < nn; j++ {
			cij := c[i+j*lda]
			for l := 0; l < kk; l++ {
				cij += a[i+l*lda] * b[l+j*lda]
			}
			c[i+j*lda] = cij
		}
	}
}
