package intersection

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/drivelearn/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// ActionDims is the number of continuous action features, in order:
// steering delta, motor target and brake target
const ActionDims = 3

// BrakingThreshold is the smoothed brake value above which the vehicle
// is considered to be braking
const BrakingThreshold = 0.5

// minSmoothTime keeps the smoothing frequency finite
const minSmoothTime = 0.0001

var (
	steeringRange = r1.Interval{Min: -1, Max: 1}
	pedalRange    = r1.Interval{Min: 0, Max: 1}
)

// ErrActionShape is returned when an action has the wrong number of
// features
var ErrActionShape = errors.New("illegal action shape")

// Control is the decoded control handed to the actuator
type Control struct {
	Steering float64 // in [-1, 1]
	Motor    float64 // in [0, 1]
	Brake    float64 // in [0, 1]
	Braking  bool
}

func (c Control) String() string {
	return fmt.Sprintf("Control | Steering: %.3f  |  Motor: %.3f  |  "+
		"Brake: %.3f  |  Braking: %v", c.Steering, c.Motor, c.Brake, c.Braking)
}

// ControlState is the control state carried from one step to the next.
// The zero value is the state at the beginning of an episode.
type ControlState struct {
	Steering      float64
	Motor         float64
	MotorVelocity float64
	Brake         float64
	BrakeVelocity float64
}

// ActionDecoder maps raw policy outputs to bounded, smoothed controls.
//
// The first action feature is a steering delta which is clipped to
// [-MaxSteeringDelta, MaxSteeringDelta] and accumulated into the
// steering value, itself clipped to [-1, 1]. The second and third
// features are motor and brake targets, clipped to [0, 1], which the
// motor and brake values approach through critically damped smoothing.
type ActionDecoder struct {
	steeringDelta   r1.Interval
	motorSmoothTime float64
	brakeSmoothTime float64
	dt              float64
}

// NewActionDecoder returns an ActionDecoder configured by c
func NewActionDecoder(c Config) ActionDecoder {
	return ActionDecoder{
		steeringDelta: r1.Interval{Min: -c.MaxSteeringDelta,
			Max: c.MaxSteeringDelta},
		motorSmoothTime: c.MotorSmoothTime,
		brakeSmoothTime: c.BrakeSmoothTime,
		dt:              c.DeltaTime,
	}
}

// Decode applies action to state and returns the next state, the
// control to actuate and the clipped steering delta that was applied
func (d ActionDecoder) Decode(state ControlState,
	action *mat.VecDense) (ControlState, Control, float64, error) {
	if action == nil || action.Len() != ActionDims {
		n := 0
		if action != nil {
			n = action.Len()
		}
		return state, Control{}, 0, fmt.Errorf("decode: %w: want %v features, "+
			"have %v", ErrActionShape, ActionDims, n)
	}

	delta := floatutils.ClipInterval(action.AtVec(0), d.steeringDelta)
	state.Steering = floatutils.ClipInterval(state.Steering+delta,
		steeringRange)

	targetMotor := floatutils.ClipInterval(action.AtVec(1), pedalRange)
	targetBrake := floatutils.ClipInterval(action.AtVec(2), pedalRange)

	state.Motor, state.MotorVelocity = SmoothDamp(state.Motor, targetMotor,
		state.MotorVelocity, d.motorSmoothTime, d.dt)
	state.Brake, state.BrakeVelocity = SmoothDamp(state.Brake, targetBrake,
		state.BrakeVelocity, d.brakeSmoothTime, d.dt)

	control := Control{
		Steering: state.Steering,
		Motor:    state.Motor,
		Brake:    state.Brake,
		Braking:  state.Brake > BrakingThreshold,
	}
	return state, control, delta, nil
}

// SmoothDamp moves current toward target with a critically damped
// spring of the given smoothing time, integrated over dt. It returns
// the new value and the new smoothing velocity, which must be passed
// back in on the next call. The result never overshoots target.
func SmoothDamp(current, target, velocity, smoothTime,
	dt float64) (float64, float64) {
	smoothTime = math.Max(minSmoothTime, smoothTime)
	omega := 2 / smoothTime

	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current - target
	temp := (velocity + omega*change) * dt
	velocity = (velocity - omega*temp) * exp
	output := target + (change+temp)*exp

	// Clamp overshoot onto the target
	if (target-current > 0) == (output > target) {
		output = target
		velocity = 0
	}
	return output, velocity
}
