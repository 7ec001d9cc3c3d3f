package intersection

// Lane is the logical direction of travel of the agent
type Lane int

const (
	Outgoing Lane = iota
	Incoming
)

func (l Lane) String() string {
	if l == Incoming {
		return "Incoming"
	}
	return "Outgoing"
}

// Transition is the result of a zone event on the lane and signal state
type Transition int

const (
	// NoTransition means the event did not touch the lane state
	NoTransition Transition = iota

	// CheckpointReached means the agent entered a reward checkpoint and
	// its lane was reset to Outgoing
	CheckpointReached

	// LaneSwitched means the agent crossed a wrong-lane checkpoint from
	// the outgoing lane and is now Incoming
	LaneSwitched

	// WrongLaneRepeated means the agent crossed a wrong-lane checkpoint
	// while already Incoming
	WrongLaneRepeated

	// SignalEntered means the agent entered a traffic light zone
	SignalEntered

	// SignalExited means the agent left a traffic light zone
	SignalExited
)

// LaneSignalState tracks the lane identity and traffic light zone
// membership of the agent. It only changes on zone events: lane
// identity becomes Incoming on a wrong-lane checkpoint and Outgoing on a
// reward checkpoint; contacts never touch it.
//
// The zero value is the reset state: Outgoing, outside any light zone
// and not waiting at a red light.
type LaneSignalState struct {
	lane       Lane
	inSignal   bool
	atRedLight bool
}

// Reset returns the state to Outgoing, outside any light zone
func (s *LaneSignalState) Reset() {
	*s = LaneSignalState{}
}

// Lane returns the current lane identity
func (s *LaneSignalState) Lane() Lane {
	return s.lane
}

// InSignalZone returns whether the agent is inside a traffic light zone
func (s *LaneSignalState) InSignalZone() bool {
	return s.inSignal
}

// AtRedLight returns whether the agent is waiting at a red light
func (s *LaneSignalState) AtRedLight() bool {
	return s.atRedLight
}

// Enter updates the state for the agent entering zone
func (s *LaneSignalState) Enter(zone Zone) Transition {
	switch zone {
	case CheckpointZone:
		s.lane = Outgoing
		return CheckpointReached

	case WrongLaneZone:
		if s.lane == Outgoing {
			s.lane = Incoming
			return LaneSwitched
		}
		return WrongLaneRepeated

	case TrafficLightZone:
		s.inSignal = true
		s.atRedLight = false
		return SignalEntered
	}
	return NoTransition
}

// Stop records that the agent is standing still inside a traffic
// light zone whose light requires a stop
func (s *LaneSignalState) Stop() {
	s.atRedLight = true
}

// Exit updates the state for the agent leaving zone
func (s *LaneSignalState) Exit(zone Zone) Transition {
	if zone != TrafficLightZone {
		return NoTransition
	}
	s.inSignal = false
	s.atRedLight = false
	return SignalExited
}
