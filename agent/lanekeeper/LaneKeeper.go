// Package lanekeeper implements a scripted lane-keeping agent for the
// intersection environment. It is useful as a baseline and for
// checking that an environment configuration is drivable.
package lanekeeper

import (
	"fmt"

	"github.com/samuelfneumann/drivelearn/agent"
	"github.com/samuelfneumann/drivelearn/environment"
	"github.com/samuelfneumann/drivelearn/environment/intersection"
	"github.com/samuelfneumann/drivelearn/timestep"
	"github.com/samuelfneumann/drivelearn/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

func init() {
	agent.Register(agent.LaneKeeper, Config{})
}

// Config implements a configuration of the LaneKeeper agent
type Config struct {
	// SteeringGain converts the difference between the right and left
	// wall ratios into a steering value
	SteeringGain float64 `json:"steering_gain"`

	// TargetSpeed is the forward speed the agent tries to hold
	TargetSpeed float64 `json:"target_speed"`

	// SpeedGain converts the speed error into a motor value
	SpeedGain float64 `json:"speed_gain"`
}

// DefaultConfig returns a LaneKeeper configuration which holds 5 m/s
func DefaultConfig() Config {
	return Config{SteeringGain: 1, TargetSpeed: 5, SpeedGain: 0.5}
}

// CreateAgent creates a LaneKeeper agent for env
func (c Config) CreateAgent(env environment.Environment,
	_ uint64) (agent.Agent, error) {
	return New(c, env.ActionSpec())
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if c.SteeringGain < 0 || c.SpeedGain < 0 {
		return fmt.Errorf("gains (%v, %v) must not be negative",
			c.SteeringGain, c.SpeedGain)
	}
	if c.TargetSpeed < 0 {
		return fmt.Errorf("target speed %v must not be negative",
			c.TargetSpeed)
	}
	return nil
}

// Type returns the type of agent the Config creates
func (c Config) Type() agent.Type {
	return agent.LaneKeeper
}

// LaneKeeper steers toward the middle of its lane using the lateral
// wall ratios, holds a target speed and brakes whenever the nearest
// traffic light requires a stop.
//
// Since the environment accumulates steering deltas, LaneKeeper tracks
// the steering value it has built up and outputs the delta toward the
// steering value it wants.
type LaneKeeper struct {
	cfg      Config
	maxDelta float64
	steering float64
	eval     bool
}

// New returns a new LaneKeeper for an environment with the given action
// spec
func New(c Config, spec environment.Spec) (*LaneKeeper, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if spec.UpperBound.Len() != intersection.ActionDims {
		return nil, fmt.Errorf("new: expected %d action features, got %d",
			intersection.ActionDims, spec.UpperBound.Len())
	}
	return &LaneKeeper{cfg: c, maxDelta: spec.UpperBound.AtVec(0)}, nil
}

// SelectAction returns the steering delta, motor and brake targets for
// the observation of t
func (l *LaneKeeper) SelectAction(t timestep.TimeStep) *mat.VecDense {
	obs := t.Observation
	action := mat.NewVecDense(intersection.ActionDims, nil)
	if obs == nil || obs.Len() != intersection.ObservationDims {
		return action
	}

	if obs.AtVec(intersection.SignalStopped) == 1 {
		action.SetVec(2, 1)
		return action
	}

	// Ratios of 0 are rays which hit nothing
	left := obs.AtVec(intersection.LeftWallRatio)
	right := obs.AtVec(intersection.RightWallRatio)
	desired := l.steering
	if left > 0 && right > 0 {
		desired = floatutils.Clip(l.cfg.SteeringGain*(right-left), -1, 1)
	}
	delta := floatutils.Clip(desired-l.steering, -l.maxDelta, l.maxDelta)
	l.steering = floatutils.Clip(l.steering+delta, -1, 1)
	action.SetVec(0, delta)

	speedError := l.cfg.TargetSpeed - obs.AtVec(intersection.LocalVelocityZ)
	action.SetVec(1, floatutils.Clip(l.cfg.SpeedGain*speedError, 0, 1))
	return action
}

// ObserveFirst resets the tracked steering value at the start of an
// episode
func (l *LaneKeeper) ObserveFirst(timestep.TimeStep) error {
	l.steering = 0
	return nil
}

func (l *LaneKeeper) Step() error { return nil }
func (l *LaneKeeper) Observe(mat.Vector, timestep.TimeStep) error { return nil }
func (l *LaneKeeper) EndEpisode() {}
func (l *LaneKeeper) Eval() { l.eval = true }
func (l *LaneKeeper) Train() { l.eval = false }
func (l *LaneKeeper) IsEval() bool { return l.eval }
