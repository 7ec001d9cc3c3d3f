package intersection

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Config fails validation
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the immutable per-run parameters of the environment.
// Rewards are added to the cumulative reward as given, so penalties
// are negative.
type Config struct {
	// Rewards
	StepPenalty    float64 `json:"step_penalty"`
	TargetReward   float64 `json:"target_reward"`
	WallPenalty    float64 `json:"wall_penalty"`
	TruckPenalty   float64 `json:"truck_penalty"`
	IdlePenalty    float64 `json:"idle_penalty"`
	TimeoutPenalty float64 `json:"timeout_penalty"`

	// Lane keeping
	MaxLateralDistance float64 `json:"max_lateral_distance"`
	LaneKeepingPenalty float64 `json:"lane_keeping_penalty"`
	RayLength          float64 `json:"ray_length"`

	// Steering deltas
	MaxSteeringDelta           float64 `json:"max_steering_delta"`
	SteeringDeltaPenaltyFactor float64 `json:"steering_delta_penalty_factor"`

	// Actuator smoothing
	MotorSmoothTime float64 `json:"motor_smooth_time"`
	BrakeSmoothTime float64 `json:"brake_smooth_time"`
	DeltaTime       float64 `json:"delta_time"`

	// Spawning
	SpawnMargin         float64 `json:"spawn_margin"`
	CheckRadius         float64 `json:"check_radius"`
	MaxSpawnTries       int     `json:"max_spawn_tries"`
	MinTargetSeparation float64 `json:"min_target_separation"`

	// Sensing
	SignalRadius     float64 `json:"signal_radius"`
	ObstacleMask     Layer   `json:"obstacle_mask"`
	WallMask         Layer   `json:"wall_mask"`
	TrafficLightMask Layer   `json:"traffic_light_mask"`

	// Episodes
	MaxSteps int     `json:"max_steps"`
	Discount float64 `json:"discount"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		StepPenalty:    -0.0005,
		TargetReward:   10,
		WallPenalty:    -50,
		TruckPenalty:   -100,
		IdlePenalty:    -0.001,
		TimeoutPenalty: -5,

		MaxLateralDistance: 2,
		LaneKeepingPenalty: -0.005,
		RayLength:          2,

		MaxSteeringDelta:           0.1,
		SteeringDeltaPenaltyFactor: 0,

		MotorSmoothTime: 0.1,
		BrakeSmoothTime: 0.05,
		DeltaTime:       0.02,

		SpawnMargin:         2,
		CheckRadius:         0.5,
		MaxSpawnTries:       100,
		MinTargetSeparation: 5,

		SignalRadius:     5,
		ObstacleMask:     LayerWall | LayerObstacle,
		WallMask:         LayerWall,
		TrafficLightMask: LayerTrafficLight,

		MaxSteps: 5000,
		Discount: 0.99,
	}
}

// Validate returns an error wrapping ErrInvalidConfig if any parameter
// is out of range
func (c Config) Validate() error {
	switch {
	case c.RayLength <= 0:
		return fmt.Errorf("%w: ray length %v must be positive",
			ErrInvalidConfig, c.RayLength)
	case c.MotorSmoothTime <= 0 || c.BrakeSmoothTime <= 0:
		return fmt.Errorf("%w: smoothing times (%v, %v) must be positive",
			ErrInvalidConfig, c.MotorSmoothTime, c.BrakeSmoothTime)
	case c.DeltaTime <= 0:
		return fmt.Errorf("%w: delta time %v must be positive",
			ErrInvalidConfig, c.DeltaTime)
	case c.MaxSteeringDelta < 0:
		return fmt.Errorf("%w: max steering delta %v must not be negative",
			ErrInvalidConfig, c.MaxSteeringDelta)
	case c.SteeringDeltaPenaltyFactor < 0:
		return fmt.Errorf("%w: steering delta penalty factor %v must not "+
			"be negative", ErrInvalidConfig, c.SteeringDeltaPenaltyFactor)
	case c.MaxSpawnTries < 1:
		return fmt.Errorf("%w: max spawn tries %v must be at least 1",
			ErrInvalidConfig, c.MaxSpawnTries)
	case c.SpawnMargin < 0 || c.CheckRadius < 0:
		return fmt.Errorf("%w: spawn margin %v and check radius %v must "+
			"not be negative", ErrInvalidConfig, c.SpawnMargin, c.CheckRadius)
	case c.SignalRadius < 0:
		return fmt.Errorf("%w: signal radius %v must not be negative",
			ErrInvalidConfig, c.SignalRadius)
	case c.MaxSteps < 0:
		return fmt.Errorf("%w: max steps %v must not be negative",
			ErrInvalidConfig, c.MaxSteps)
	case c.Discount < 0 || c.Discount > 1:
		return fmt.Errorf("%w: discount %v must be in [0, 1]",
			ErrInvalidConfig, c.Discount)
	}
	return nil
}
