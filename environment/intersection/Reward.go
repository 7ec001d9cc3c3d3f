package intersection

import (
	"fmt"
	"math"
)

// Fixed rewards of the zone rules
const (
	CheckpointZoneReward = 10.0
	WrongLanePenalty     = -10.0
	RedApproachReward    = 10.0
	GreenApproachReward  = 1.0
	RedWaitReward        = 0.1
	GreenWaitPenalty     = -0.5
	RedRunPenalty        = -100.0
	GreenPassReward      = 50.0
)

// Speed thresholds of the rules
const (
	// IdleSpeed is the speed below which the agent is standing still
	IdleSpeed = 0.1

	// SlowApproachSpeed is the speed below which entering a red light
	// zone is rewarded
	SlowApproachSpeed = 2.0
)

// RewardKind names the rule that produced a RewardEvent
type RewardKind int

const (
	StepCost RewardKind = iota
	SteeringCost
	Idle
	LaneDrift
	TimedOut
	TargetHit
	WallHit
	TruckHit
	CheckpointPassed
	WrongLane
	RedApproach
	GreenApproach
	RedWait
	GreenWait
	RedRun
	GreenPass
)

var rewardKindNames = [...]string{
	StepCost:         "StepCost",
	SteeringCost:     "SteeringCost",
	Idle:             "Idle",
	LaneDrift:        "LaneDrift",
	TimedOut:         "TimedOut",
	TargetHit:        "TargetHit",
	WallHit:          "WallHit",
	TruckHit:         "TruckHit",
	CheckpointPassed: "CheckpointPassed",
	WrongLane:        "WrongLane",
	RedApproach:      "RedApproach",
	GreenApproach:    "GreenApproach",
	RedWait:          "RedWait",
	GreenWait:        "GreenWait",
	RedRun:           "RedRun",
	GreenPass:        "GreenPass",
}

func (k RewardKind) String() string {
	if k >= 0 && int(k) < len(rewardKindNames) {
		return rewardKindNames[k]
	}
	return fmt.Sprintf("RewardKind(%d)", int(k))
}

// RewardEvent is a reward delta produced by a rule. At most one
// terminal RewardEvent is honoured per episode.
type RewardEvent struct {
	Kind      RewardKind
	Magnitude float64
	Terminal  bool
}

func (r RewardEvent) String() string {
	return fmt.Sprintf("%v(%+.4f, terminal: %v)", r.Kind, r.Magnitude,
		r.Terminal)
}

// StepContext is the state seen by the per-step rules
type StepContext struct {
	SteeringDelta float64
	Speed         float64
	HasBody       bool
	Lane          Lane
	AtRedLight    bool
	Walls         WallHits
	TimedOut      bool
}

// RewardShaper converts steps, contacts and zone transitions into
// reward deltas following a fixed rule table
type RewardShaper struct {
	stepPenalty                float64
	idlePenalty                float64
	timeoutPenalty             float64
	targetReward               float64
	wallPenalty                float64
	truckPenalty               float64
	laneKeepingPenalty         float64
	maxLateralDistance         float64
	steeringDeltaPenaltyFactor float64
}

// NewRewardShaper returns a RewardShaper configured by c
func NewRewardShaper(c Config) RewardShaper {
	return RewardShaper{
		stepPenalty:                c.StepPenalty,
		idlePenalty:                c.IdlePenalty,
		timeoutPenalty:             c.TimeoutPenalty,
		targetReward:               c.TargetReward,
		wallPenalty:                c.WallPenalty,
		truckPenalty:               c.TruckPenalty,
		laneKeepingPenalty:         c.LaneKeepingPenalty,
		maxLateralDistance:         c.MaxLateralDistance,
		steeringDeltaPenaltyFactor: c.SteeringDeltaPenaltyFactor,
	}
}

// Step returns the rewards of a single action, in rule order: steering
// cost, step cost, idling, lane drift and finally the timeout, which is
// the only terminal per-step rule.
func (r RewardShaper) Step(c StepContext) []RewardEvent {
	events := make([]RewardEvent, 0, 4)

	if r.steeringDeltaPenaltyFactor > 0 {
		events = append(events, RewardEvent{
			Kind:      SteeringCost,
			Magnitude: -math.Abs(c.SteeringDelta) * r.steeringDeltaPenaltyFactor,
		})
	}

	events = append(events, RewardEvent{Kind: StepCost, Magnitude: r.stepPenalty})

	if c.HasBody && c.Speed < IdleSpeed && !c.AtRedLight {
		events = append(events, RewardEvent{Kind: Idle, Magnitude: r.idlePenalty})
	}

	if c.Lane == Outgoing && !c.AtRedLight && c.Walls.Both() {
		offset := math.Abs(c.Walls.Left - c.Walls.Right)
		if offset > r.maxLateralDistance {
			events = append(events, RewardEvent{
				Kind:      LaneDrift,
				Magnitude: r.laneKeepingPenalty * offset,
			})
		}
	}

	if c.TimedOut {
		events = append(events, RewardEvent{
			Kind:      TimedOut,
			Magnitude: r.timeoutPenalty,
			Terminal:  true,
		})
	}
	return events
}

// Contact returns the reward for a collision with a body tagged tag.
// Every tagged contact is terminal; untagged contacts give nothing.
func (r RewardShaper) Contact(tag Tag) (RewardEvent, bool) {
	switch tag {
	case TagCheckpoint:
		return RewardEvent{Kind: TargetHit, Magnitude: r.targetReward,
			Terminal: true}, true
	case TagWall:
		return RewardEvent{Kind: WallHit, Magnitude: r.wallPenalty,
			Terminal: true}, true
	case TagTruck:
		return RewardEvent{Kind: TruckHit, Magnitude: r.truckPenalty,
			Terminal: true}, true
	}
	return RewardEvent{}, false
}

// Zone returns the rewards for a trigger event which caused transition
// t. Speed-dependent rules only apply when hasBody is true.
func (r RewardShaper) Zone(ev Event, t Transition, speed float64,
	hasBody bool) []RewardEvent {
	switch t {
	case CheckpointReached:
		return []RewardEvent{{Kind: CheckpointPassed,
			Magnitude: CheckpointZoneReward}}

	case WrongLaneRepeated:
		return []RewardEvent{{Kind: WrongLane, Magnitude: WrongLanePenalty,
			Terminal: true}}

	case SignalEntered:
		if ev.Signal == nil {
			return nil
		}
		if !ev.Signal.Stopped() {
			return []RewardEvent{{Kind: GreenApproach,
				Magnitude: GreenApproachReward}}
		}
		if hasBody && speed < SlowApproachSpeed {
			return []RewardEvent{{Kind: RedApproach,
				Magnitude: RedApproachReward}}
		}

	case SignalExited:
		if ev.Signal == nil {
			return nil
		}
		if ev.Signal.Stopped() {
			return []RewardEvent{{Kind: RedRun, Magnitude: RedRunPenalty}}
		}
		return []RewardEvent{{Kind: GreenPass, Magnitude: GreenPassReward}}
	}

	// Standing still inside a light zone
	if ev.Kind == ZoneStay && ev.Zone == TrafficLightZone && ev.Signal != nil &&
		hasBody && speed < IdleSpeed {
		if ev.Signal.Stopped() {
			return []RewardEvent{{Kind: RedWait, Magnitude: RedWaitReward}}
		}
		return []RewardEvent{{Kind: GreenWait, Magnitude: GreenWaitPenalty}}
	}
	return nil
}
