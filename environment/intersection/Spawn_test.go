package intersection

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func testBounds() Bounds {
	return Bounds{
		Min: r3.Vec{X: -20, Y: 0, Z: -20},
		Max: r3.Vec{X: 20, Y: 0.2, Z: 20},
	}
}

func TestSampleAvoidsObstacles(t *testing.T) {
	w := newFakeWorld()
	for x := -16.0; x <= 16; x += 8 {
		for z := -16.0; z <= 16; z += 8 {
			w.obstacles = append(w.obstacles, sphere{r3.Vec{X: x, Z: z}, 2.5})
		}
	}

	s := NewSpawnSampler(w, rand.NewPCG(7, 7))
	bounds := testBounds()
	const margin, radius = 2.0, 0.5

	accepted := 0
	for i := 0; i < 500; i++ {
		p, ok := s.Sample(bounds, 0.5, margin, radius, LayerObstacle, 100)
		if !ok {
			assert.Equal(t, bounds.Center(), p)
			continue
		}
		accepted++

		assert.Equal(t, 0.5, p.Y, "y should be fixed by the caller")
		assert.GreaterOrEqual(t, p.X, bounds.Min.X+margin)
		assert.LessOrEqual(t, p.X, bounds.Max.X-margin)
		assert.GreaterOrEqual(t, p.Z, bounds.Min.Z+margin)
		assert.LessOrEqual(t, p.Z, bounds.Max.Z-margin)

		for _, o := range w.obstacles {
			d := r3.Norm(r3.Vec{X: p.X - o.center.X, Z: p.Z - o.center.Z})
			require.GreaterOrEqual(t, d, radius+o.radius,
				"sample %v overlaps obstacle at %v", p, o.center)
		}
	}
	assert.Greater(t, accepted, 0)
}

func TestSampleFallsBackToCenter(t *testing.T) {
	w := newFakeWorld()
	w.alwaysBlock = true
	s := NewSpawnSampler(w, rand.NewPCG(1, 1))

	bounds := testBounds()
	p, ok := s.Sample(bounds, 0.5, 2, 0.5, LayerObstacle, 25)
	assert.False(t, ok)
	assert.Equal(t, bounds.Center(), p, "fallback should be the exact center")
	assert.Equal(t, 25, w.checks, "every try should be tested")
}

func TestSampleIsDeterministic(t *testing.T) {
	a := NewSpawnSampler(newFakeWorld(), rand.NewPCG(99, 99))
	b := NewSpawnSampler(newFakeWorld(), rand.NewPCG(99, 99))

	for i := 0; i < 50; i++ {
		pa, _ := a.Sample(testBounds(), 0, 2, 0.5, LayerObstacle, 10)
		pb, _ := b.Sample(testBounds(), 0, 2, 0.5, LayerObstacle, 10)
		require.Equal(t, pa, pb)
	}
}

func TestSampleCollapsesSmallBounds(t *testing.T) {
	s := NewSpawnSampler(newFakeWorld(), rand.NewPCG(3, 3))
	bounds := Bounds{Min: r3.Vec{X: 0, Z: 10}, Max: r3.Vec{X: 2, Z: 12}}

	p, ok := s.Sample(bounds, 1, 5, 0.5, LayerObstacle, 10)
	assert.True(t, ok)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 11}, p)
}

func TestSampleTargetSeparation(t *testing.T) {
	s := NewSpawnSampler(newFakeWorld(), rand.NewPCG(5, 5))
	agent := r3.Vec{X: 0, Y: 0.5, Z: 0}

	for i := 0; i < 100; i++ {
		p, separated := s.SampleTarget(testBounds(), 0.5, 2, agent, 5, 2,
			0.5, LayerObstacle, 100)
		require.True(t, separated)
		assert.GreaterOrEqual(t, r3.Norm(r3.Sub(agent, p)), 5.0)
		assert.Equal(t, 1.5, p.Y, "target should be lifted by half its height")
	}
}

func TestSampleTargetGivesUpAfterBudget(t *testing.T) {
	w := newFakeWorld()
	s := NewSpawnSampler(w, rand.NewPCG(5, 5))

	// Every point of the ground lies within 5 of the agent
	bounds := Bounds{Min: r3.Vec{X: -1, Z: -1}, Max: r3.Vec{X: 1, Z: 1}}
	p, separated := s.SampleTarget(bounds, 0, 1, r3.Vec{}, 5, 0, 0.1,
		LayerObstacle, 8)
	assert.False(t, separated)
	assert.Equal(t, 0.5, p.Y)
	assert.Equal(t, 8*1, w.checks, "each attempt should draw one candidate")
}
