// Package agent defines the policy boundary of the environment: the
// interfaces that agents driving the intersection environment
// implement, and a registry for their configurations.
package agent

import (
	"github.com/samuelfneumann/drivelearn/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns from experience, and a
// Policy which chooses actions in each state. Agents which do not learn
// implement the Learner methods as no-ops.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how an agent
// changes with experience
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. The returned action is
// a raw policy output; the environment clips and smooths it.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}
