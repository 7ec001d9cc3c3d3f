// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/drivelearn/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should be ended. If the argument
// TimeStep is the last in the episode, End modifies it so that its
// StepType is timestep.Last and returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment. Environments are
// stepped with actions until a timestep.Last TimeStep is returned, at
// which point Reset must be called to begin the next episode.
type Environment interface {
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
