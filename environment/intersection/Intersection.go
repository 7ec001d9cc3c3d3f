// Package intersection implements a driving environment in which a
// vehicle must cross a two-lane intersection to reach a target, keeping
// to its lane, obeying traffic lights and avoiding collisions.
//
// The package owns only the agent's control loop and episode logic.
// Physics, actuation and the scene are consumed through the World
// interface; see the box2d/junction package for an implementation.
package intersection

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samuelfneumann/drivelearn/environment"
	"github.com/samuelfneumann/drivelearn/timestep"
	"github.com/samuelfneumann/drivelearn/utils/monitoring"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEpisodeTerminated is returned when stepping an episode which has
// already ended. Reset must be called first.
var ErrEpisodeTerminated = errors.New("episode terminated")

// EpisodeSummary describes a finished episode
type EpisodeSummary struct {
	Episode int
	Return  float64
	Steps   int
	EndType timestep.EndType
	Cause   RewardKind
}

// Intersection implements the intersection driving environment.
//
// State observations are vectors of ObservationDims features:
//
//	1. The agent's velocity along its right axis
//	2. The agent's velocity along its forward axis
//	3. 1 if a traffic light within SignalRadius requires a stop, else 0
//	4. The distance to the wall on the agent's left divided by
//	   RayLength, 0 if no wall is in range. Always 1 in the incoming lane.
//	5. The same ratio for the wall on the agent's right
//
// Actions are 3-dimensional and continuous:
//
//	1. A steering delta, clipped to [-MaxSteeringDelta,
//	   MaxSteeringDelta] and accumulated into a steering value in [-1, 1]
//	2. A motor target, clipped to [0, 1]
//	3. A brake target, clipped to [0, 1]
//
// Motor and brake values approach their targets smoothly. Braking is
// engaged when the smoothed brake value exceeds BrakingThreshold.
//
// Each call to Step runs, in order: action decoding and the per-step
// rewards, actuation, a physics step, dispatch of the physics step's
// events and finally observation. Once a terminal reward is applied, no
// further event of the episode changes the environment until Reset.
//
// Intersection implements the environment.Environment interface.
type Intersection struct {
	world     World
	cfg       Config
	sampler   *SpawnSampler
	encoder   ObservationEncoder
	decoder   ActionDecoder
	shaper    RewardShaper
	stepLimit environment.StepLimit

	truckPosition r3.Vec
	truckAngle    float64

	control           ControlState
	lanes             LaneSignalState
	cumulativeReward  float64
	lastEpisodeReward float64
	stepReward        float64
	stepIndex         int
	terminated        bool
	endType           timestep.EndType
	episode           int

	onEnd []func(EpisodeSummary)
}

// New returns a new Intersection environment driving world, with spawn
// placement seeded by seed, and the first timestep of its first episode
func New(world World, c Config, seed uint64) (*Intersection,
	timestep.TimeStep, error) {
	if world == nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: nil world")
	}
	if err := c.Validate(); err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	e := &Intersection{
		world:     world,
		cfg:       c,
		sampler:   NewSpawnSampler(world, rand.NewPCG(seed, seed)),
		encoder:   NewObservationEncoder(c),
		decoder:   NewActionDecoder(c),
		shaper:    NewRewardShaper(c),
		stepLimit: environment.NewStepLimit(c.MaxSteps),
	}

	// The truck is restored to where it stood when the environment was
	// created
	if truck, ok := world.Truck(); ok {
		e.truckPosition, e.truckAngle = truck.Pose()
	}

	step, err := e.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return e, step, nil
}

// OnEpisodeEnd registers f to be called whenever an episode ends
func (e *Intersection) OnEpisodeEnd(f func(EpisodeSummary)) {
	e.onEnd = append(e.onEnd, f)
}

// Reset begins a new episode and returns its first timestep
func (e *Intersection) Reset() (timestep.TimeStep, error) {
	e.beginEpisode()

	obs := e.encoder.Encode(e.world, e.lanes.Lane())
	return timestep.New(timestep.First, 0, e.cfg.Discount, obs, 0), nil
}

// beginEpisode resets all episode state and places the agent, target
// and truck
func (e *Intersection) beginEpisode() {
	e.lastEpisodeReward = e.cumulativeReward
	if e.episode > 0 {
		monitoring.Logf("episode %d ended with reward: %v", e.episode,
			e.lastEpisodeReward)
	}
	e.cumulativeReward = 0
	e.episode++

	e.lanes.Reset()

	if truck, ok := e.world.Truck(); ok {
		truck.SetPose(e.truckPosition, e.truckAngle)
	}

	if ground, ok := e.world.Ground(); ok {
		e.spawn(ground)
	}

	e.world.ResetVelocity()

	e.control = ControlState{}
	e.stepIndex = 0
	e.stepReward = 0
	e.terminated = false
	e.endType = timestep.Unknown
}

// spawn places the agent and target at random free positions on ground
func (e *Intersection) spawn(ground Bounds) {
	agent := e.world.Agent()
	if agent == nil {
		return
	}
	y := agent.Position().Y

	agentPosition, ok := e.sampler.Sample(ground, y, e.cfg.SpawnMargin,
		e.cfg.CheckRadius, e.cfg.ObstacleMask, e.cfg.MaxSpawnTries)
	if !ok {
		monitoring.Warnf("failed to find a valid spawn position for the " +
			"agent, using ground center")
	}
	agent.SetPosition(agentPosition)

	target, ok := e.world.Target()
	if !ok {
		return
	}
	targetPosition, separated := e.sampler.SampleTarget(ground, y,
		target.Height(), agentPosition, e.cfg.MinTargetSeparation,
		e.cfg.SpawnMargin, e.cfg.CheckRadius, e.cfg.ObstacleMask,
		e.cfg.MaxSpawnTries)
	if !separated {
		monitoring.Warnf("target placed within %v of the agent after %d "+
			"tries", e.cfg.MinTargetSeparation, e.cfg.MaxSpawnTries)
	}
	target.SetPosition(targetPosition)
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended. Actions must have
// ActionDims features; values outside the action bounds are clipped.
func (e *Intersection) Step(a *mat.VecDense) (timestep.TimeStep, bool, error) {
	if e.terminated {
		return timestep.TimeStep{}, true, fmt.Errorf("step: %w",
			ErrEpisodeTerminated)
	}

	control, c, delta, err := e.decoder.Decode(e.control, a)
	if err != nil {
		return timestep.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	e.control = control
	e.stepReward = 0

	index := e.stepIndex
	e.stepIndex++

	speed, hasBody := e.speed()
	ctx := StepContext{
		SteeringDelta: delta,
		Speed:         speed,
		HasBody:       hasBody,
		Lane:          e.lanes.Lane(),
		AtRedLight:    e.lanes.AtRedLight(),
		TimedOut:      e.stepLimit.Reached(index),
	}
	if ctx.Lane == Outgoing && !ctx.AtRedLight {
		ctx.Walls = e.encoder.WallDistances(e.world)
	}
	e.apply(e.shaper.Step(ctx))

	if !e.terminated {
		e.world.Actuate(c)
		for _, ev := range e.world.Advance(e.cfg.DeltaTime) {
			if e.terminated {
				break
			}
			e.dispatch(ev)
		}
	}

	obs := e.encoder.Encode(e.world, e.lanes.Lane())
	step := timestep.New(timestep.Mid, e.stepReward, e.cfg.Discount, obs,
		e.stepIndex)
	if e.terminated {
		step.StepType = timestep.Last
		step.SetEnd(e.endType)
	}
	return step, e.terminated, nil
}

// dispatch applies the state transitions and rewards of a single event
func (e *Intersection) dispatch(ev Event) {
	speed, hasBody := e.speed()

	switch ev.Kind {
	case Contact:
		monitoring.Logf("collision with: %v, tag: %v", ev.Name, ev.Tag)
		if r, ok := e.shaper.Contact(ev.Tag); ok {
			e.apply([]RewardEvent{r})
		}

	case ZoneEnter:
		t := e.lanes.Enter(ev.Zone)
		switch t {
		case LaneSwitched:
			monitoring.Logf("crossed %v in the outgoing lane, switching "+
				"to %v", ev.Name, e.lanes.Lane())
		case WrongLaneRepeated:
			monitoring.Logf("crossed %v again in lane %v", ev.Name,
				e.lanes.Lane())
		}
		e.apply(e.shaper.Zone(ev, t, speed, hasBody))

	case ZoneStay:
		e.apply(e.shaper.Zone(ev, NoTransition, speed, hasBody))

	case ZoneExit:
		t := e.lanes.Exit(ev.Zone)
		e.apply(e.shaper.Zone(ev, t, speed, hasBody))
	}
}

// apply adds rewards to the episode in order, ending the episode on the
// first terminal reward and dropping any reward after it
func (e *Intersection) apply(rewards []RewardEvent) {
	for _, r := range rewards {
		if e.terminated {
			return
		}
		e.cumulativeReward += r.Magnitude
		e.stepReward += r.Magnitude

		switch r.Kind {
		case RedWait:
			e.lanes.Stop()
		case StepCost, SteeringCost, Idle, LaneDrift:
			// every step, too frequent to log
		default:
			monitoring.Logf("%v, reward: %v", r, e.cumulativeReward)
		}

		if r.Terminal {
			e.terminate(r.Kind)
		}
	}
}

// terminate ends the episode because of a reward of the given kind
func (e *Intersection) terminate(cause RewardKind) {
	e.terminated = true
	e.endType = timestep.TerminalStateReached
	if cause == TimedOut {
		e.endType = timestep.Timeout
	}
	e.lastEpisodeReward = e.cumulativeReward

	summary := EpisodeSummary{
		Episode: e.episode,
		Return:  e.cumulativeReward,
		Steps:   e.stepIndex,
		EndType: e.endType,
		Cause:   cause,
	}
	for _, f := range e.onEnd {
		f(summary)
	}
}

// speed returns the agent's speed and whether it has a rigid body
func (e *Intersection) speed() (float64, bool) {
	v, ok := e.world.Velocity()
	if !ok {
		return 0, false
	}
	return r3.Norm(v), true
}

// CumulativeReward returns the reward accumulated this episode
func (e *Intersection) CumulativeReward() float64 { return e.cumulativeReward }

// LastEpisodeReward returns the return of the previous episode
func (e *Intersection) LastEpisodeReward() float64 { return e.lastEpisodeReward }

// Lane returns the agent's lane identity
func (e *Intersection) Lane() Lane { return e.lanes.Lane() }

// AtRedLight returns whether the agent is waiting at a red light
func (e *Intersection) AtRedLight() bool { return e.lanes.AtRedLight() }

// InSignalZone returns whether the agent is inside a traffic light zone
func (e *Intersection) InSignalZone() bool { return e.lanes.InSignalZone() }

// StepIndex returns the number of steps taken this episode
func (e *Intersection) StepIndex() int { return e.stepIndex }

// Terminated returns whether the current episode has ended
func (e *Intersection) Terminated() bool { return e.terminated }

// ControlState returns the current steering, motor and brake state
func (e *Intersection) ControlState() ControlState { return e.control }

// Config returns the environment configuration
func (e *Intersection) Config() Config { return e.cfg }

// WallDistances returns the current lateral wall distances
func (e *Intersection) WallDistances() WallHits {
	return e.encoder.WallDistances(e.world)
}

// ObservationSpec returns the observation specification of the
// environment
func (e *Intersection) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims, []float64{
		math.Inf(-1), math.Inf(-1), 0, 0, 0,
	})
	upperBound := mat.NewVecDense(ObservationDims, []float64{
		math.Inf(1), math.Inf(1), 1, 1, 1,
	})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (e *Intersection) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{
		-e.cfg.MaxSteeringDelta, 0, 0,
	})
	upperBound := mat.NewVecDense(ActionDims, []float64{
		e.cfg.MaxSteeringDelta, 1, 1,
	})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// RewardSpec returns the reward specification of the environment
func (e *Intersection) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{math.Inf(-1)})
	upperBound := mat.NewVecDense(1, []float64{math.Inf(1)})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (e *Intersection) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{e.cfg.Discount})

	return environment.NewSpec(shape, environment.Discount, bound, bound,
		environment.Continuous)
}

// String returns a string representation of the environment
func (e *Intersection) String() string {
	str := "Intersection  |  Episode: %v  |  Step: %v  |  Lane: %v  |  " +
		"Reward: %.4f"
	return fmt.Sprintf(str, e.episode, e.stepIndex, e.lanes.Lane(),
		e.cumulativeReward)
}
