package environment

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting vectors uniformly from a box given
// by one interval per feature
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter seeded with seed
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	return NewUniformStarterFrom(bounds, rand.NewPCG(seed, seed))
}

// NewUniformStarterFrom returns a UniformStarter drawing from src.
// Starters sharing a source produce one deterministic stream of
// samples between them.
func NewUniformStarterFrom(bounds []r1.Interval, src rand.Source) UniformStarter {
	return UniformStarter{len(bounds), distmv.NewUniform(bounds, src)}
}

// Start returns a sampled vector
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
