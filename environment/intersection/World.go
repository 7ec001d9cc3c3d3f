package intersection

import (
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Layer is a bitmask of physics layers. Queries only consider bodies
// whose layer intersects the query mask.
type Layer uint16

const (
	LayerDefault Layer = 1 << iota
	LayerAgent
	LayerWall
	LayerObstacle
	LayerTrafficLight
	LayerCheckpoint
	LayerWrongCheckpoint
)

// Has returns whether any bit of other is set in l
func (l Layer) Has(other Layer) bool {
	return l&other != 0
}

// Pose is the position and orientation of the agent. Forward and Right
// are unit vectors spanning the agent's local frame on the ground
// plane, with Y pointing up.
type Pose struct {
	Position r3.Vec
	Forward  r3.Vec
	Right    r3.Vec
}

// Bounds is an axis-aligned box, usually the extent of the ground
type Bounds struct {
	Min, Max r3.Vec
}

// Center returns the center of the box
func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// X returns the extent of the box along the x axis
func (b Bounds) X() r1.Interval {
	return r1.Interval{Min: b.Min.X, Max: b.Max.X}
}

// Z returns the extent of the box along the z axis
func (b Bounds) Z() r1.Interval {
	return r1.Interval{Min: b.Min.Z, Max: b.Max.Z}
}

// Signal is a traffic light as seen by the agent
type Signal interface {
	// Stopped returns whether the light currently requires a stop
	Stopped() bool
}

// Physics is the physics query interface consumed by the environment
type Physics interface {
	// Pose returns the agent's current position and orientation
	Pose() Pose

	// Velocity returns the agent's linear velocity. The boolean is
	// false if the agent has no rigid body.
	Velocity() (r3.Vec, bool)

	// ResetVelocity zeroes the agent's linear and angular velocity
	ResetVelocity()

	// CheckSphere returns whether any body on mask overlaps the sphere
	CheckSphere(center r3.Vec, radius float64, mask Layer) bool

	// OverlapSignals returns the traffic lights whose trigger volumes
	// on mask overlap the sphere, in no particular order
	OverlapSignals(center r3.Vec, radius float64, mask Layer) []Signal

	// Raycast casts a ray of the given length and returns the distance
	// to the first body on mask that it hits
	Raycast(origin, direction r3.Vec, length float64, mask Layer) (float64, bool)

	// Advance integrates the simulation by dt and returns the contact
	// and trigger events emitted during the step, in order
	Advance(dt float64) []Event
}

// Actuator receives the decoded control every step
type Actuator interface {
	Actuate(c Control)
}

// Placeable is a scene object that the environment can move
type Placeable interface {
	Position() r3.Vec
	SetPosition(r3.Vec)
}

// Target is the object the agent must reach
type Target interface {
	Placeable

	// Height returns the height of the target's bounding box
	Height() float64
}

// Obstacle is a scene object whose pose is restored every episode
type Obstacle interface {
	Pose() (position r3.Vec, angle float64)
	SetPose(position r3.Vec, angle float64)
}

// Scene exposes the scene references. Each reference is optional.
type Scene interface {
	// Ground returns the extent of the ground
	Ground() (Bounds, bool)

	// Agent returns the agent transform
	Agent() Placeable

	Target() (Target, bool)
	Truck() (Obstacle, bool)
}

// World bundles everything the environment consumes from the outside
type World interface {
	Physics
	Actuator
	Scene
}
