// Package junction provides a top-down Box2D implementation of the
// intersection.World used by the intersection environment.
//
// The simulation is two-dimensional. Box2D coordinates (x, y) map to the
// ground plane coordinates (X, Z) of the environment, with Y pointing
// up. Hard bodies such as walls, the truck and the target produce
// contact events; sensor bodies such as checkpoints and traffic light
// zones produce trigger events.
package junction

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/drivelearn/environment/intersection"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	staticBody  = 0
	dynamicBody = 2

	VelocityIterations = 8
	PositionIterations = 3

	// DefaultDeltaTime is the step length assumed for actuation before
	// the first call to Advance
	DefaultDeltaTime = 0.02

	// allLayers lets every fixture collide with every other; layers are
	// only used to filter queries
	allLayers = 0xFFFF
)

// element is attached as user data to every fixture in the world
type element struct {
	name  string
	layer intersection.Layer
	tag   intersection.Tag
	zone  intersection.Zone
	light *TrafficLight
}

func (e *element) signal() intersection.Signal {
	if e.light == nil {
		return nil
	}
	return e.light
}

// Junction is a Box2D world holding a single vehicle agent. It
// implements the intersection.World interface.
type Junction struct {
	world   box2d.B2World
	vehicle Vehicle

	agent  *agentBody
	target *targetBody
	truck  *truckBody

	ground    intersection.Bounds
	hasGround bool

	lights *Manager
	dt     float64

	// zones the agent is currently inside, in the order entered
	inside  []*box2d.B2Fixture
	entered map[*box2d.B2Fixture]bool
	pending []intersection.Event
}

// New returns an empty Junction holding only the vehicle agent, placed
// at start facing heading radians counter-clockwise from the +Z axis
func New(v Vehicle, start r3.Vec, heading float64) *Junction {
	j := &Junction{
		vehicle: v,
		dt:      DefaultDeltaTime,
		entered: make(map[*box2d.B2Fixture]bool),
	}
	j.world = box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	j.world.SetContactListener(newContactDetector(j))

	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = dynamicBody
	bodyDef.Position = toB2(start)
	bodyDef.Angle = heading
	bodyDef.LinearDamping = v.LinearDamping
	bodyDef.AngularDamping = v.AngularDamping
	body := j.world.CreateBody(&bodyDef)

	shape := box2d.NewB2PolygonShape()
	shape.SetAsBox(v.HalfWidth, v.HalfLength)
	fixture := box2d.MakeB2FixtureDef()
	fixture.Shape = shape
	fixture.Density = v.Density
	fixture.Friction = 0.3
	fixture.Filter = filter(intersection.LayerAgent)
	fixture.UserData = &element{name: "Agent", layer: intersection.LayerAgent}
	body.CreateFixtureFromDef(&fixture)

	j.agent = &agentBody{junction: j, body: body, height: v.Height}
	return j
}

// SetGround sets the extent of the ground that spawn positions are
// sampled from
func (j *Junction) SetGround(b intersection.Bounds) {
	j.ground = b
	j.hasGround = true
}

// SetLights sets the manager which cycles the junction's traffic lights
// as the simulation advances
func (j *Junction) SetLights(m *Manager) {
	j.lights = m
}

// Lights returns the traffic light manager, or nil if there is none
func (j *Junction) Lights() *Manager {
	return j.lights
}

// AddWall adds a static wall. The wall extends halfWidth along its
// right axis and halfLength along its forward axis, which is rotated
// angle radians counter-clockwise from +Z.
func (j *Junction) AddWall(name string, center r3.Vec, halfWidth,
	halfLength, angle float64) {
	el := &element{name: name, layer: intersection.LayerWall,
		tag: intersection.TagWall}
	j.addBox(el, center, halfWidth, halfLength, angle, false)
}

// AddZone adds a trigger volume of the given kind. Traffic light zones
// should be given the light that controls them.
func (j *Junction) AddZone(name string, zone intersection.Zone, center r3.Vec,
	halfWidth, halfLength, angle float64, light *TrafficLight) {
	el := &element{name: name, zone: zone, light: light}
	switch zone {
	case intersection.CheckpointZone:
		el.layer = intersection.LayerCheckpoint
	case intersection.WrongLaneZone:
		el.layer = intersection.LayerWrongCheckpoint
	case intersection.TrafficLightZone:
		el.layer = intersection.LayerTrafficLight
	default:
		el.layer = intersection.LayerDefault
	}
	j.addBox(el, center, halfWidth, halfLength, angle, true)
}

// AddTarget adds the target the agent must reach. Touching it ends the
// episode successfully.
func (j *Junction) AddTarget(name string, center r3.Vec, radius,
	height float64) {
	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = staticBody
	bodyDef.Position = toB2(center)
	body := j.world.CreateBody(&bodyDef)

	shape := box2d.NewB2CircleShape()
	shape.M_radius = radius
	fixture := box2d.MakeB2FixtureDef()
	fixture.Shape = shape
	fixture.Filter = filter(intersection.LayerDefault)
	fixture.UserData = &element{name: name, layer: intersection.LayerDefault,
		tag: intersection.TagCheckpoint}
	body.CreateFixtureFromDef(&fixture)

	j.target = &targetBody{body: body, y: center.Y, height: height}
}

// AddTruck adds a movable truck, which the agent must avoid
func (j *Junction) AddTruck(name string, center r3.Vec, halfWidth,
	halfLength, angle, density float64) {
	el := &element{name: name, layer: intersection.LayerObstacle,
		tag: intersection.TagTruck}

	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = dynamicBody
	bodyDef.Position = toB2(center)
	bodyDef.Angle = angle
	bodyDef.LinearDamping = 5
	bodyDef.AngularDamping = 5
	body := j.world.CreateBody(&bodyDef)

	shape := box2d.NewB2PolygonShape()
	shape.SetAsBox(halfWidth, halfLength)
	fixture := box2d.MakeB2FixtureDef()
	fixture.Shape = shape
	fixture.Density = density
	fixture.Friction = 0.8
	fixture.Filter = filter(el.layer)
	fixture.UserData = el
	body.CreateFixtureFromDef(&fixture)

	j.truck = &truckBody{body: body, y: center.Y}
}

func (j *Junction) addBox(el *element, center r3.Vec, halfWidth,
	halfLength, angle float64, sensor bool) {
	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = staticBody
	bodyDef.Position = toB2(center)
	bodyDef.Angle = angle
	body := j.world.CreateBody(&bodyDef)

	shape := box2d.NewB2PolygonShape()
	shape.SetAsBox(halfWidth, halfLength)
	fixture := box2d.MakeB2FixtureDef()
	fixture.Shape = shape
	fixture.IsSensor = sensor
	fixture.Filter = filter(el.layer)
	fixture.UserData = el
	body.CreateFixtureFromDef(&fixture)
}

// Pose returns the agent's position and orientation
func (j *Junction) Pose() intersection.Pose {
	b := j.agent.body
	forward, right := axes(b.GetAngle())
	return intersection.Pose{
		Position: j.agent.Position(),
		Forward:  forward,
		Right:    right,
	}
}

// Velocity returns the agent's linear velocity
func (j *Junction) Velocity() (r3.Vec, bool) {
	return fromB2(j.agent.body.GetLinearVelocity(), 0), true
}

// ResetVelocity zeroes the agent's linear and angular velocity
func (j *Junction) ResetVelocity() {
	j.agent.body.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	j.agent.body.SetAngularVelocity(0)
}

// CheckSphere returns whether any fixture on mask overlaps the circle
// of the given radius around center. Fixtures are approximated by
// their bounding boxes.
func (j *Junction) CheckSphere(center r3.Vec, radius float64,
	mask intersection.Layer) bool {
	found := false
	j.overlap(center, radius, func(_ *box2d.B2Fixture, el *element) bool {
		if mask.Has(el.layer) {
			found = true
			return false
		}
		return true
	})
	return found
}

// OverlapSignals returns the traffic lights of all light zones on mask
// overlapping the circle of the given radius around center
func (j *Junction) OverlapSignals(center r3.Vec, radius float64,
	mask intersection.Layer) []intersection.Signal {
	var signals []intersection.Signal
	seen := make(map[*TrafficLight]bool)
	j.overlap(center, radius, func(_ *box2d.B2Fixture, el *element) bool {
		if mask.Has(el.layer) && el.zone == intersection.TrafficLightZone &&
			el.light != nil && !seen[el.light] {
			seen[el.light] = true
			signals = append(signals, el.light)
		}
		return true
	})
	return signals
}

// overlap calls f for every fixture whose bounding box overlaps the
// circle around center until f returns false
func (j *Junction) overlap(center r3.Vec, radius float64,
	f func(*box2d.B2Fixture, *element) bool) {
	c := toB2(center)
	aabb := box2d.MakeB2AABB()
	aabb.LowerBound = box2d.MakeB2Vec2(c.X-radius, c.Y-radius)
	aabb.UpperBound = box2d.MakeB2Vec2(c.X+radius, c.Y+radius)

	j.world.QueryAABB(func(fixture *box2d.B2Fixture) bool {
		el, ok := fixture.GetUserData().(*element)
		if !ok {
			return true
		}
		box := fixture.GetAABB(0)
		dx := math.Max(0, math.Max(box.LowerBound.X-c.X, c.X-box.UpperBound.X))
		dy := math.Max(0, math.Max(box.LowerBound.Y-c.Y, c.Y-box.UpperBound.Y))
		if dx*dx+dy*dy > radius*radius {
			return true
		}
		return f(fixture, el)
	}, aabb)
}

// Raycast returns the distance along direction to the closest fixture
// on mask within length of origin
func (j *Junction) Raycast(origin, direction r3.Vec, length float64,
	mask intersection.Layer) (float64, bool) {
	dir := r3.Unit(r3.Vec{X: direction.X, Z: direction.Z})
	p1 := toB2(origin)
	p2 := toB2(r3.Add(origin, r3.Scale(length, dir)))

	closest, hit := 1.0, false
	j.world.RayCast(func(fixture *box2d.B2Fixture, point, normal box2d.B2Vec2,
		fraction float64) float64 {
		el, ok := fixture.GetUserData().(*element)
		if !ok || !mask.Has(el.layer) {
			return -1
		}
		if fraction <= closest {
			closest, hit = fraction, true
		}
		return fraction
	}, p1, p2)

	if !hit {
		return 0, false
	}
	return closest * length, true
}

// Advance steps the simulation by dt and returns the contact and
// trigger events of the step. Trigger stay events follow all other
// events, one per zone the agent was already inside. Zones the agent
// still touches after being moved by SetPosition are taken back
// without an enter event.
func (j *Junction) Advance(dt float64) []intersection.Event {
	j.dt = dt
	if j.lights != nil {
		j.lights.Advance(dt)
	}

	j.pending = nil
	clear(j.entered)
	j.world.Step(dt, VelocityIterations, PositionIterations)
	j.adoptTouching()

	events := j.pending
	for _, fixture := range j.inside {
		if j.entered[fixture] {
			continue
		}
		el := fixture.GetUserData().(*element)
		events = append(events, intersection.Stay(el.zone, el.signal(),
			el.name))
	}
	j.pending = nil
	return events
}

// Actuate applies the control to the vehicle
func (j *Junction) Actuate(c intersection.Control) {
	j.vehicle.actuate(j.agent.body, c, j.dt)
}

// Ground returns the extent of the ground
func (j *Junction) Ground() (intersection.Bounds, bool) {
	return j.ground, j.hasGround
}

// Agent returns the vehicle agent
func (j *Junction) Agent() intersection.Placeable {
	return j.agent
}

// Target returns the target, if one was added
func (j *Junction) Target() (intersection.Target, bool) {
	if j.target == nil {
		return nil, false
	}
	return j.target, true
}

// Truck returns the truck, if one was added
func (j *Junction) Truck() (intersection.Obstacle, bool) {
	if j.truck == nil {
		return nil, false
	}
	return j.truck, true
}

// adoptTouching adds the sensors which the agent touches but which
// are missing from the zones it is inside
func (j *Junction) adoptTouching() {
	body := j.agent.body
	for edge := body.GetContactList(); edge != nil; edge = edge.Next {
		contact := edge.Contact
		if !contact.IsTouching() {
			continue
		}

		fixture := contact.GetFixtureA()
		if fixture.GetBody() == body {
			fixture = contact.GetFixtureB()
		}
		if !fixture.IsSensor() || j.isInside(fixture) {
			continue
		}
		if _, ok := fixture.GetUserData().(*element); ok {
			j.inside = append(j.inside, fixture)
		}
	}
}

func (j *Junction) isInside(fixture *box2d.B2Fixture) bool {
	for _, f := range j.inside {
		if f == fixture {
			return true
		}
	}
	return false
}

// enter records that the agent entered zone
func (j *Junction) enter(fixture *box2d.B2Fixture, el *element) {
	if j.isInside(fixture) {
		return
	}
	j.inside = append(j.inside, fixture)
	j.entered[fixture] = true
	j.pending = append(j.pending, intersection.Enter(el.zone, el.signal(),
		el.name))
}

// exit records that the agent left zone. Zones the agent was moved out
// of by SetPosition produce no event.
func (j *Junction) exit(fixture *box2d.B2Fixture, el *element) {
	for i, f := range j.inside {
		if f == fixture {
			j.inside = append(j.inside[:i], j.inside[i+1:]...)
			j.pending = append(j.pending, intersection.Exit(el.zone,
				el.signal(), el.name))
			return
		}
	}
}

func (j *Junction) contact(el *element) {
	j.pending = append(j.pending, intersection.ContactWith(el.tag, el.name))
}

// agentBody is the vehicle as a placeable scene object
type agentBody struct {
	junction *Junction
	body     *box2d.B2Body
	height   float64
}

func (a *agentBody) Position() r3.Vec {
	return fromB2(a.body.GetPosition(), a.height)
}

// SetPosition moves the vehicle, keeping its heading. Zone membership
// is forgotten until the next Advance, which takes back the zones the
// vehicle still touches.
func (a *agentBody) SetPosition(p r3.Vec) {
	a.body.SetTransform(toB2(p), a.body.GetAngle())
	a.height = p.Y
	a.junction.inside = a.junction.inside[:0]
}

type targetBody struct {
	body   *box2d.B2Body
	y      float64
	height float64
}

func (t *targetBody) Position() r3.Vec {
	return fromB2(t.body.GetPosition(), t.y)
}

func (t *targetBody) SetPosition(p r3.Vec) {
	t.body.SetTransform(toB2(p), t.body.GetAngle())
	t.y = p.Y
}

func (t *targetBody) Height() float64 {
	return t.height
}

type truckBody struct {
	body *box2d.B2Body
	y    float64
}

func (t *truckBody) Pose() (r3.Vec, float64) {
	return fromB2(t.body.GetPosition(), t.y), t.body.GetAngle()
}

// SetPose moves the truck and brings it to rest
func (t *truckBody) SetPose(p r3.Vec, angle float64) {
	t.body.SetTransform(toB2(p), angle)
	t.body.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	t.body.SetAngularVelocity(0)
	t.y = p.Y
}

func filter(l intersection.Layer) box2d.B2Filter {
	f := box2d.MakeB2Filter()
	f.CategoryBits = uint16(l)
	f.MaskBits = allLayers
	return f
}

// axes returns the forward and right unit vectors of a body rotated
// angle radians counter-clockwise from +Z
func axes(angle float64) (forward, right r3.Vec) {
	sin, cos := math.Sincos(angle)
	forward = r3.Vec{X: -sin, Z: cos}
	right = r3.Vec{X: cos, Z: sin}
	return forward, right
}

func toB2(v r3.Vec) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X, v.Z)
}

func fromB2(v box2d.B2Vec2, y float64) r3.Vec {
	return r3.Vec{X: v.X, Y: y, Z: v.Y}
}
