package intersection

import (
	"math/rand/v2"

	"github.com/samuelfneumann/drivelearn/environment"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Overlapper tests spheres against the obstacles in the world
type Overlapper interface {
	CheckSphere(center r3.Vec, radius float64, mask Layer) bool
}

// SpawnSampler places objects on the ground by rejection sampling.
// All draws come from a single source so that a seeded sampler
// produces the same placements for the same sequence of calls.
type SpawnSampler struct {
	obstacles Overlapper
	src       rand.Source
}

// NewSpawnSampler returns a SpawnSampler testing candidates against
// obstacles and drawing them from src
func NewSpawnSampler(obstacles Overlapper, src rand.Source) *SpawnSampler {
	return &SpawnSampler{obstacles: obstacles, src: src}
}

// Sample draws up to maxTries candidates uniformly from the bounds
// shrunk by margin on the x and z axes, with y fixed, and returns the
// first one whose checkRadius sphere overlaps no obstacle on mask.
//
// If every candidate is rejected, the center of the bounds is returned
// together with false.
func (s *SpawnSampler) Sample(bounds Bounds, y, margin, checkRadius float64,
	mask Layer, maxTries int) (r3.Vec, bool) {
	if maxTries < 1 {
		return bounds.Center(), false
	}

	starter := environment.NewUniformStarterFrom([]r1.Interval{
		shrink(bounds.X(), margin),
		shrink(bounds.Z(), margin),
	}, s.src)

	for i := 0; i < maxTries; i++ {
		xz := starter.Start()
		candidate := r3.Vec{X: xz.AtVec(0), Y: y, Z: xz.AtVec(1)}

		if !s.obstacles.CheckSphere(candidate, checkRadius, mask) {
			return candidate, true
		}
	}
	return bounds.Center(), false
}

// SampleTarget places a target of the given height using Sample, lifting
// each candidate by half the height, and redraws while the target is
// closer than minSeparation to the agent. After maxTries draws the last
// candidate is accepted whatever its distance; the returned boolean
// reports whether the separation was achieved.
func (s *SpawnSampler) SampleTarget(bounds Bounds, y, height float64,
	agent r3.Vec, minSeparation, margin, checkRadius float64, mask Layer,
	maxTries int) (r3.Vec, bool) {
	var target r3.Vec
	for attempts := 0; ; {
		target, _ = s.Sample(bounds, y, margin, checkRadius, mask, maxTries)
		target.Y += height / 2
		attempts++

		separated := r3.Norm(r3.Sub(agent, target)) >= minSeparation
		if separated || attempts >= maxTries {
			return target, separated
		}
	}
}

// shrink removes margin from both ends of the interval. An interval
// too small to shrink collapses onto its midpoint.
func shrink(i r1.Interval, margin float64) r1.Interval {
	shrunk := r1.Interval{Min: i.Min + margin, Max: i.Max - margin}
	if shrunk.Min > shrunk.Max {
		mid := (i.Min + i.Max) / 2
		return r1.Interval{Min: mid, Max: mid}
	}
	return shrunk
}
