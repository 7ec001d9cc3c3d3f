package junction

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/drivelearn/environment/intersection"
	"gonum.org/v1/gonum/spatial/r3"
)

// Layout describes a four-way junction of two-lane roads. Traffic
// drives on the right. Each road arm has an outgoing lane leading away
// from the junction and an incoming lane leading into it. Every lane
// has a reward checkpoint where it begins and a wrong-lane checkpoint
// where it ends, and every incoming lane has a traffic light zone just
// before the junction.
type Layout struct {
	LaneWidth     float64 `json:"lane_width"`
	RoadLength    float64 `json:"road_length"`
	WallThickness float64 `json:"wall_thickness"`

	CheckpointDepth float64 `json:"checkpoint_depth"`
	LightZoneDepth  float64 `json:"light_zone_depth"`

	// GreenDuration is the number of seconds each light group is green.
	// North-south and east-west lights form the two groups.
	GreenDuration float64 `json:"green_duration"`
	TrainingMode  bool    `json:"training_mode"`
	AlwaysRed     bool    `json:"always_red"`

	TargetRadius float64 `json:"target_radius"`
	TargetHeight float64 `json:"target_height"`

	Truck           bool    `json:"truck"`
	TruckHalfWidth  float64 `json:"truck_half_width"`
	TruckHalfLength float64 `json:"truck_half_length"`
	TruckDensity    float64 `json:"truck_density"`

	Vehicle Vehicle `json:"vehicle"`
}

// DefaultLayout returns a junction of 3m lanes and 20m road arms with
// a parked truck
func DefaultLayout() Layout {
	return Layout{
		LaneWidth:       3,
		RoadLength:      20,
		WallThickness:   0.5,
		CheckpointDepth: 0.5,
		LightZoneDepth:  3,
		GreenDuration:   5,
		TrainingMode:    false,
		AlwaysRed:       true,
		TargetRadius:    0.5,
		TargetHeight:    1,
		Truck:           true,
		TruckHalfWidth:  1.25,
		TruckHalfLength: 4,
		TruckDensity:    500,
		Vehicle:         DefaultVehicle(),
	}
}

// Validate returns an error if any parameter is out of range
func (l Layout) Validate() error {
	switch {
	case l.LaneWidth <= 0 || l.RoadLength <= 0:
		return fmt.Errorf("lane width %v and road length %v must be positive",
			l.LaneWidth, l.RoadLength)
	case l.WallThickness <= 0:
		return fmt.Errorf("wall thickness %v must be positive",
			l.WallThickness)
	case l.CheckpointDepth <= 0 || l.LightZoneDepth <= 0:
		return fmt.Errorf("checkpoint depth %v and light zone depth %v "+
			"must be positive", l.CheckpointDepth, l.LightZoneDepth)
	case l.LightZoneDepth > l.RoadLength:
		return fmt.Errorf("light zone depth %v exceeds road length %v",
			l.LightZoneDepth, l.RoadLength)
	case l.GreenDuration <= 0:
		return fmt.Errorf("green duration %v must be positive",
			l.GreenDuration)
	case l.TargetRadius <= 0:
		return fmt.Errorf("target radius %v must be positive", l.TargetRadius)
	case l.Truck && (l.TruckHalfWidth <= 0 || l.TruckHalfLength <= 0 ||
		l.TruckDensity <= 0):
		return fmt.Errorf("truck extents (%v, %v) and density %v must be "+
			"positive", l.TruckHalfWidth, l.TruckHalfLength, l.TruckDensity)
	case 2*l.Vehicle.HalfWidth >= l.LaneWidth:
		return fmt.Errorf("vehicle width %v does not fit a lane of width %v",
			2*l.Vehicle.HalfWidth, l.LaneWidth)
	}
	return l.Vehicle.Validate()
}

// arm is a road leaving the junction in a compass direction
type arm struct {
	name      string
	direction r3.Vec // unit vector pointing away from the junction
}

var arms = []arm{
	{"North", r3.Vec{Z: 1}},
	{"East", r3.Vec{X: 1}},
	{"South", r3.Vec{Z: -1}},
	{"West", r3.Vec{X: -1}},
}

// Build returns the Junction described by l. The agent starts in the
// incoming lane of the south arm, facing the junction.
func Build(l Layout) (*Junction, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	// The central square spans [-w, w] on both axes and the arms reach
	// out to extent
	w := l.LaneWidth
	extent := w + l.RoadLength
	half := l.RoadLength / 2
	y := l.Vehicle.Height

	start := r3.Vec{X: w / 2, Y: y, Z: -(w + half)}
	j := New(l.Vehicle, start, 0)
	j.SetGround(intersection.Bounds{
		Min: r3.Vec{X: -extent, Z: -extent},
		Max: r3.Vec{X: extent, Z: extent},
	})

	// The corners between the arms are solid blocks whose faces are the
	// road edges
	for _, sx := range []float64{-1, 1} {
		for _, sz := range []float64{-1, 1} {
			center := r3.Vec{X: sx * (w + half), Z: sz * (w + half)}
			j.AddWall(fmt.Sprintf("Block_%v_%v", sx, sz), center, half, half, 0)
		}
	}

	groups := make([][]*TrafficLight, 2)
	for i, a := range arms {
		d := a.direction
		right := r3.Vec{X: d.Z, Z: -d.X}
		angle := heading(d)
		armCenter := r3.Scale(w+half, d)

		// End wall
		j.AddWall(fmt.Sprintf("Wall_%v", a.name),
			r3.Scale(extent+l.WallThickness/2, d), w, l.WallThickness/2, angle)

		lanes := []struct {
			name      string
			center    r3.Vec
			direction r3.Vec
		}{
			{"Outgoing", r3.Add(armCenter, r3.Scale(w/2, right)), d},
			{"Incoming", r3.Sub(armCenter, r3.Scale(w/2, right)), r3.Scale(-1, d)},
		}
		for _, lane := range lanes {
			id := a.name + "_" + lane.name
			laneStart := r3.Sub(lane.center, r3.Scale(half-l.CheckpointDepth/2,
				lane.direction))
			laneEnd := r3.Add(lane.center, r3.Scale(half-l.CheckpointDepth/2,
				lane.direction))

			j.AddZone("EntranceCheckpoint_"+id, intersection.CheckpointZone,
				laneStart, w/2, l.CheckpointDepth/2, angle, nil)
			j.AddZone("WrongLaneCheckpoint_"+id, intersection.WrongLaneZone,
				laneEnd, w/2, l.CheckpointDepth/2, angle, nil)
		}

		// Traffic light zone at the junction end of the incoming lane
		light := NewTrafficLight("TrafficLight_" + a.name)
		light.SetTrainingMode(l.TrainingMode, l.AlwaysRed)
		groups[i%2] = append(groups[i%2], light)

		zoneCenter := r3.Add(lanes[1].center,
			r3.Scale(half-l.LightZoneDepth/2, lanes[1].direction))
		j.AddZone(light.Name(), intersection.TrafficLightZone, zoneCenter,
			w/2, l.LightZoneDepth/2, angle, light)
	}
	j.SetLights(NewManager(groups, l.GreenDuration))

	// The target starts in the outgoing lane of the north arm and the
	// truck is parked in the incoming lane of the east arm
	j.AddTarget("Target", r3.Vec{X: w / 2, Y: y, Z: w + half},
		l.TargetRadius, l.TargetHeight)
	if l.Truck {
		j.AddTruck("Truck", r3.Vec{X: w + half, Y: y, Z: w / 2},
			l.TruckHalfWidth, l.TruckHalfLength, heading(r3.Vec{X: 1}),
			l.TruckDensity)
	}
	return j, nil
}

// heading returns the body angle whose forward axis is d
func heading(d r3.Vec) float64 {
	return math.Atan2(-d.X, d.Z)
}
