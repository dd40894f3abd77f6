package naive

import (
	"math"
	"testing"
)

func TestMultiplyKnown(t *testing.T) {
	// Column-major: A = [1 3; 2 4], B = [5 7; 6 8].
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}
	c := []float64{1, 1, 1, 1}

	New().Multiply(2, a, b, c)

	// A·B = [23 31; 34 46], plus the initial ones.
	want := []float64{24, 35, 32, 47}
	for i := range want {
		if math.Abs(c[i]-want[i]) > 1e-12 {
			t.Errorf("c[%d] = %v, want %v", i, c[i], want[i])
		}
	}
	if a[0] != 1 || b[3] != 8 {
		t.Error("inputs were modified")
	}
}

func TestMultiplyAccumulates(t *testing.T) {
	n := 3
	a := make([]float64, n*n)
	b := make([]float64, n*n)
	for i := 0; i < n; i++ {
		a[i+i*n] = 1
		b[i+i*n] = 2
	}
	c := make([]float64, n*n)

	k := New()
	k.Multiply(n, a, b, c)
	k.Multiply(n, a, b, c)

	for i := 0; i < n; i++ {
		if c[i+i*n] != 4 {
			t.Errorf("diagonal %d = %v, want 4", i, c[i+i*n])
		}
	}
}

func TestNaming(t *testing.T) {
	k := New()
	if k.Name() != "naive" || k.Description() != Description {
		t.Errorf("unexpected name/description %q/%q", k.Name(), k.Description())
	}
}
