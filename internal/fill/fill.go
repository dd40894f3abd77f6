// Package fill populates matrix storage with uniform random values.
package fill

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Filler owns its generator. It is seeded once and every Fill continues the
// same stream.
type Filler struct {
	dist distuv.Uniform
	seed uint64
}

// New seeds a Filler. A zero seed is replaced by the current time, so runs
// are not reproducible unless a seed is given.
func New(seed uint64) *Filler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Filler{
		dist: distuv.Uniform{Min: -1, Max: 1, Src: src},
		seed: seed,
	}
}

// Seed reports the seed actually in use.
func (f *Filler) Seed() uint64 {
	return f.seed
}

// Fill overwrites every element of p with an independent draw from [-1, 1].
func (f *Filler) Fill(p []float64) {
	for i := range p {
		p[i] = f.dist.Rand()
	}
}
