package environment

import "github.com/samuelfneumann/drivelearn/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits. A limit of 0 never ends an episode.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// Limit returns the number of steps after which episodes are cut off
func (s StepLimit) Limit() int {
	return s.episodeSteps
}

// Reached returns whether the action with zero-based index stepIndex
// is the last one allowed in the episode
func (s StepLimit) Reached(stepIndex int) bool {
	return s.episodeSteps > 0 && stepIndex >= s.episodeSteps-1
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is timestep.Timeout
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if s.episodeSteps > 0 && t.Number >= s.episodeSteps {
		t.StepType = timestep.Last
		t.SetEnd(timestep.Timeout)
		return true
	}
	return false
}
