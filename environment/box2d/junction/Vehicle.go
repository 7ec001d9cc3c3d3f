package junction

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/drivelearn/environment/intersection"
)

// Vehicle describes the agent's car. The car is a box driven by a
// kinematic bicycle model: the motor pushes along the car's forward
// axis, the front wheels set the yaw rate and tyre grip cancels lateral
// slip.
type Vehicle struct {
	HalfWidth  float64 `json:"half_width"`
	HalfLength float64 `json:"half_length"`

	// Height is the height of the car's center above the ground
	Height float64 `json:"height"`

	Density        float64 `json:"density"`
	LinearDamping  float64 `json:"linear_damping"`
	AngularDamping float64 `json:"angular_damping"`

	MotorForce    float64 `json:"motor_force"`
	BrakeForce    float64 `json:"brake_force"`
	MaxSteerAngle float64 `json:"max_steer_angle"` // degrees
	WheelBase     float64 `json:"wheel_base"`
}

// DefaultVehicle returns a mid-sized car
func DefaultVehicle() Vehicle {
	return Vehicle{
		HalfWidth:      0.9,
		HalfLength:     2.0,
		Height:         0.5,
		Density:        100,
		LinearDamping:  0.1,
		AngularDamping: 2,
		MotorForce:     4000,
		BrakeForce:     8000,
		MaxSteerAngle:  30,
		WheelBase:      2.6,
	}
}

// Validate returns an error if any parameter is out of range
func (v Vehicle) Validate() error {
	switch {
	case v.HalfWidth <= 0 || v.HalfLength <= 0:
		return fmt.Errorf("vehicle half extents (%v, %v) must be positive",
			v.HalfWidth, v.HalfLength)
	case v.Density <= 0:
		return fmt.Errorf("vehicle density %v must be positive", v.Density)
	case v.WheelBase <= 0:
		return fmt.Errorf("vehicle wheel base %v must be positive",
			v.WheelBase)
	case v.MotorForce < 0 || v.BrakeForce < 0:
		return fmt.Errorf("vehicle forces (%v, %v) must not be negative",
			v.MotorForce, v.BrakeForce)
	case v.MaxSteerAngle < 0 || v.MaxSteerAngle >= 90:
		return fmt.Errorf("vehicle max steer angle %v must be in [0, 90)",
			v.MaxSteerAngle)
	}
	return nil
}

// actuate applies control c to body for a step of dt seconds. While
// braking the motor is cut.
func (v Vehicle) actuate(body *box2d.B2Body, c intersection.Control,
	dt float64) {
	forward, right := axes(body.GetAngle())
	vel := fromB2(body.GetLinearVelocity(), 0)
	forwardSpeed := vel.X*forward.X + vel.Z*forward.Z
	lateralSpeed := vel.X*right.X + vel.Z*right.Z

	// Tyre grip
	mass := body.GetMass()
	grip := box2d.MakeB2Vec2(-lateralSpeed*mass*right.X,
		-lateralSpeed*mass*right.Z)
	body.ApplyLinearImpulse(grip, body.GetWorldCenter(), true)

	var force box2d.B2Vec2
	if c.Braking {
		// Brakes stop the car but never push it backwards
		speed := math.Hypot(vel.X, vel.Z)
		if speed > 0 {
			brake := math.Min(v.BrakeForce, mass*speed/dt)
			force = box2d.MakeB2Vec2(-vel.X/speed*brake, -vel.Z/speed*brake)
		}
	} else {
		motor := c.Motor * v.MotorForce
		force = box2d.MakeB2Vec2(forward.X*motor, forward.Z*motor)
	}
	body.ApplyForceToCenter(force, true)

	// Positive steering turns right, which is clockwise from above
	steer := c.Steering * v.MaxSteerAngle * math.Pi / 180
	body.SetAngularVelocity(-forwardSpeed * math.Tan(steer) / v.WheelBase)
}
