package intersection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(events []RewardEvent, kind RewardKind) (RewardEvent, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}
	return RewardEvent{}, false
}

func TestLaneDriftPenalty(t *testing.T) {
	c := DefaultConfig()
	c.MaxLateralDistance = 1.0
	c.LaneKeepingPenalty = -0.005
	r := NewRewardShaper(c)

	walls := WallHits{Left: 1.8, Right: 0.5, LeftHit: true, RightHit: true}
	events := r.Step(StepContext{Lane: Outgoing, Walls: walls, Speed: 3,
		HasBody: true})

	drift, ok := find(events, LaneDrift)
	require.True(t, ok, "lane drift should fire")
	assert.InDelta(t, -0.0065, drift.Magnitude, 1e-12)
	assert.False(t, drift.Terminal)

	cases := map[string]StepContext{
		"incoming lane": {Lane: Incoming, Walls: walls},
		"at red light":  {Lane: Outgoing, Walls: walls, AtRedLight: true},
		"one ray missed": {Lane: Outgoing, Walls: WallHits{Left: 1.8,
			LeftHit: true}},
		"centred": {Lane: Outgoing, Walls: WallHits{Left: 1, Right: 0.5,
			LeftHit: true, RightHit: true}},
	}
	for name, ctx := range cases {
		_, ok := find(r.Step(ctx), LaneDrift)
		assert.False(t, ok, name)
	}
}

func TestStepRules(t *testing.T) {
	c := DefaultConfig()
	c.SteeringDeltaPenaltyFactor = 2
	r := NewRewardShaper(c)

	events := r.Step(StepContext{SteeringDelta: -0.05, Speed: 0.05,
		HasBody: true})
	require.Len(t, events, 3)
	assert.Equal(t, SteeringCost, events[0].Kind)
	assert.InDelta(t, -0.1, events[0].Magnitude, 1e-12)
	assert.Equal(t, RewardEvent{Kind: StepCost, Magnitude: -0.0005}, events[1])
	assert.Equal(t, RewardEvent{Kind: Idle, Magnitude: -0.001}, events[2])

	// No idling while waiting at a red light or without a body
	_, ok := find(r.Step(StepContext{Speed: 0, HasBody: true, AtRedLight: true}), Idle)
	assert.False(t, ok)
	_, ok = find(r.Step(StepContext{Speed: 0}), Idle)
	assert.False(t, ok)

	events = r.Step(StepContext{Speed: 5, HasBody: true, TimedOut: true})
	last := events[len(events)-1]
	assert.Equal(t, RewardEvent{Kind: TimedOut, Magnitude: -5, Terminal: true}, last)

	c.SteeringDeltaPenaltyFactor = 0
	_, ok = find(NewRewardShaper(c).Step(StepContext{SteeringDelta: 0.1}), SteeringCost)
	assert.False(t, ok, "a zero factor disables the steering cost")
}

func TestContactRules(t *testing.T) {
	r := NewRewardShaper(DefaultConfig())

	tests := []struct {
		tag  Tag
		want RewardEvent
	}{
		{TagCheckpoint, RewardEvent{TargetHit, 10, true}},
		{TagWall, RewardEvent{WallHit, -50, true}},
		{TagTruck, RewardEvent{TruckHit, -100, true}},
	}
	for _, test := range tests {
		got, ok := r.Contact(test.tag)
		assert.True(t, ok, test.tag.String())
		assert.Equal(t, test.want, got, test.tag.String())
	}

	_, ok := r.Contact(Untagged)
	assert.False(t, ok)
}

func TestZoneRules(t *testing.T) {
	r := NewRewardShaper(DefaultConfig())
	red, green := &fakeSignal{stopped: true}, &fakeSignal{}

	tests := []struct {
		name  string
		event Event
		tr    Transition
		speed float64
		want  []RewardEvent
	}{
		{"checkpoint", Enter(CheckpointZone, nil, "cp"), CheckpointReached, 5,
			[]RewardEvent{{CheckpointPassed, 10, false}}},
		{"lane switch", Enter(WrongLaneZone, nil, "wl"), LaneSwitched, 5, nil},
		{"wrong lane repeat", Enter(WrongLaneZone, nil, "wl"), WrongLaneRepeated, 5,
			[]RewardEvent{{WrongLane, -10, true}}},
		{"red approach slow", Enter(TrafficLightZone, red, "tl"), SignalEntered, 1.5,
			[]RewardEvent{{RedApproach, 10, false}}},
		{"red approach fast", Enter(TrafficLightZone, red, "tl"), SignalEntered, 2.5, nil},
		{"green approach", Enter(TrafficLightZone, green, "tl"), SignalEntered, 9,
			[]RewardEvent{{GreenApproach, 1, false}}},
		{"red wait", Stay(TrafficLightZone, red, "tl"), NoTransition, 0.05,
			[]RewardEvent{{RedWait, 0.1, false}}},
		{"red rolling", Stay(TrafficLightZone, red, "tl"), NoTransition, 0.5, nil},
		{"green wait", Stay(TrafficLightZone, green, "tl"), NoTransition, 0,
			[]RewardEvent{{GreenWait, -0.5, false}}},
		{"red run", Exit(TrafficLightZone, red, "tl"), SignalExited, 4,
			[]RewardEvent{{RedRun, -100, false}}},
		{"green pass", Exit(TrafficLightZone, green, "tl"), SignalExited, 4,
			[]RewardEvent{{GreenPass, 50, false}}},
		{"light without controller", Exit(TrafficLightZone, nil, "tl"),
			SignalExited, 4, nil},
		{"stay in checkpoint", Stay(CheckpointZone, nil, "cp"), NoTransition, 0, nil},
	}

	for _, test := range tests {
		got := r.Zone(test.event, test.tr, test.speed, true)
		assert.Equal(t, test.want, got, test.name)
	}

	// Speed-dependent rules need a body
	assert.Nil(t, r.Zone(Stay(TrafficLightZone, red, "tl"), NoTransition, 0, false))
}
