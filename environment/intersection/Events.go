package intersection

import "fmt"

// EventKind is the kind of a spatial event emitted by the physics engine
type EventKind int

const (
	// Contact is a hard collision between the agent and another body
	Contact EventKind = iota

	// ZoneEnter is emitted when the agent enters a trigger volume
	ZoneEnter

	// ZoneStay is emitted every step that the agent remains inside a
	// trigger volume
	ZoneStay

	// ZoneExit is emitted when the agent leaves a trigger volume
	ZoneExit
)

func (k EventKind) String() string {
	switch k {
	case Contact:
		return "Contact"
	case ZoneEnter:
		return "ZoneEnter"
	case ZoneStay:
		return "ZoneStay"
	case ZoneExit:
		return "ZoneExit"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Tag identifies what the agent collided with
type Tag int

const (
	Untagged Tag = iota
	TagCheckpoint
	TagWall
	TagTruck
)

func (t Tag) String() string {
	switch t {
	case TagCheckpoint:
		return "Checkpoint"
	case TagWall:
		return "Wall"
	case TagTruck:
		return "Truck"
	}
	return "Untagged"
}

// Zone identifies the kind of trigger volume
type Zone int

const (
	NoZone Zone = iota
	CheckpointZone
	WrongLaneZone
	TrafficLightZone
)

func (z Zone) String() string {
	switch z {
	case CheckpointZone:
		return "Checkpoint"
	case WrongLaneZone:
		return "WrongCheckpoint"
	case TrafficLightZone:
		return "TrafficLight"
	}
	return "None"
}

// Event is a contact or trigger event. Tag is set for contacts, Zone
// for trigger events. Signal is set for traffic light zones and may be
// nil if the zone has no light attached.
type Event struct {
	Kind   EventKind
	Tag    Tag
	Zone   Zone
	Signal Signal
	Name   string
}

// ContactWith returns a contact event against a body tagged tag
func ContactWith(tag Tag, name string) Event {
	return Event{Kind: Contact, Tag: tag, Name: name}
}

// Enter returns a trigger enter event
func Enter(zone Zone, signal Signal, name string) Event {
	return Event{Kind: ZoneEnter, Zone: zone, Signal: signal, Name: name}
}

// Stay returns a trigger stay event
func Stay(zone Zone, signal Signal, name string) Event {
	return Event{Kind: ZoneStay, Zone: zone, Signal: signal, Name: name}
}

// Exit returns a trigger exit event
func Exit(zone Zone, signal Signal, name string) Event {
	return Event{Kind: ZoneExit, Zone: zone, Signal: signal, Name: name}
}

func (e Event) String() string {
	if e.Kind == Contact {
		return fmt.Sprintf("%v(%v %q)", e.Kind, e.Tag, e.Name)
	}
	return fmt.Sprintf("%v(%v %q)", e.Kind, e.Zone, e.Name)
}
