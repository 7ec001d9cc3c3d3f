package intersection

import (
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeSignal struct{ stopped bool }

func (s *fakeSignal) Stopped() bool { return s.stopped }

type fakePlaceable struct {
	position r3.Vec
	height   float64
}

func (p *fakePlaceable) Position() r3.Vec       { return p.position }
func (p *fakePlaceable) SetPosition(pos r3.Vec) { p.position = pos }
func (p *fakePlaceable) Height() float64        { return p.height }

type fakeTruck struct {
	position r3.Vec
	angle    float64
}

func (t *fakeTruck) Pose() (r3.Vec, float64) { return t.position, t.angle }
func (t *fakeTruck) SetPose(position r3.Vec, angle float64) {
	t.position, t.angle = position, angle
}

// sphere is an obstacle on the ground plane
type sphere struct {
	center r3.Vec
	radius float64
}

// fakeWorld is a scripted World. Each call to Advance returns the next
// batch of events in script.
type fakeWorld struct {
	pose     Pose
	velocity r3.Vec
	noBody   bool

	obstacles   []sphere
	alwaysBlock bool
	checks      int

	signals    []Signal
	signalMask Layer

	left, right       float64
	leftHit, rightHit bool

	script   [][]Event
	advances int
	actuated []Control

	ground *Bounds
	agent  *fakePlaceable
	target *fakePlaceable
	truck  *fakeTruck

	velocityResets int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		pose: Pose{
			Forward: r3.Vec{Z: 1},
			Right:   r3.Vec{X: 1},
		},
		velocity: r3.Vec{Z: 5},
		agent:    &fakePlaceable{position: r3.Vec{Y: 0.5}},
	}
}

func (w *fakeWorld) Pose() Pose {
	p := w.pose
	if w.agent != nil {
		p.Position = w.agent.position
	}
	return p
}

func (w *fakeWorld) Velocity() (r3.Vec, bool) {
	if w.noBody {
		return r3.Vec{}, false
	}
	return w.velocity, true
}

func (w *fakeWorld) ResetVelocity() {
	w.velocityResets++
	w.velocity = r3.Vec{}
}

func (w *fakeWorld) CheckSphere(center r3.Vec, radius float64, _ Layer) bool {
	w.checks++
	if w.alwaysBlock {
		return true
	}
	for _, o := range w.obstacles {
		d := r3.Vec{X: center.X - o.center.X, Z: center.Z - o.center.Z}
		if r3.Norm(d) < radius+o.radius {
			return true
		}
	}
	return false
}

// OverlapSignals treats every scripted signal as lying on the
// traffic light layer
func (w *fakeWorld) OverlapSignals(_ r3.Vec, _ float64,
	mask Layer) []Signal {
	w.signalMask = mask
	if !mask.Has(LayerTrafficLight) {
		return nil
	}
	return w.signals
}

func (w *fakeWorld) Raycast(_, direction r3.Vec, length float64,
	_ Layer) (float64, bool) {
	if r3.Dot(direction, w.pose.Right) < 0 {
		return w.left, w.leftHit && w.left <= length
	}
	return w.right, w.rightHit && w.right <= length
}

func (w *fakeWorld) Advance(float64) []Event {
	w.advances++
	if len(w.script) == 0 {
		return nil
	}
	events := w.script[0]
	w.script = w.script[1:]
	return events
}

func (w *fakeWorld) Actuate(c Control) {
	w.actuated = append(w.actuated, c)
}

func (w *fakeWorld) Ground() (Bounds, bool) {
	if w.ground == nil {
		return Bounds{}, false
	}
	return *w.ground, true
}

func (w *fakeWorld) Agent() Placeable {
	if w.agent == nil {
		return nil
	}
	return w.agent
}

func (w *fakeWorld) Target() (Target, bool) {
	if w.target == nil {
		return nil, false
	}
	return w.target, true
}

func (w *fakeWorld) Truck() (Obstacle, bool) {
	if w.truck == nil {
		return nil, false
	}
	return w.truck, true
}
