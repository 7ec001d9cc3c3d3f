package junction

import (
	"github.com/ByteArena/box2d"
)

// contactDetector turns Box2D contacts involving the agent into
// environment events
type contactDetector struct {
	junction *Junction
}

func newContactDetector(j *Junction) *contactDetector {
	return &contactDetector{j}
}

// other returns the fixture touching the agent in contact, if any
func (c *contactDetector) other(contact box2d.B2ContactInterface) (
	*box2d.B2Fixture, *element, bool) {
	agent := c.junction.agent
	if agent == nil {
		return nil, nil, false
	}

	a, b := contact.GetFixtureA(), contact.GetFixtureB()
	var fixture *box2d.B2Fixture
	switch agent.body {
	case a.GetBody():
		fixture = b
	case b.GetBody():
		fixture = a
	default:
		return nil, nil, false
	}

	el, ok := fixture.GetUserData().(*element)
	return fixture, el, ok
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	fixture, el, ok := c.other(contact)
	if !ok {
		return
	}
	if fixture.IsSensor() {
		c.junction.enter(fixture, el)
		return
	}
	c.junction.contact(el)
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	fixture, el, ok := c.other(contact)
	if !ok || !fixture.IsSensor() {
		return
	}
	c.junction.exit(fixture, el)
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}
