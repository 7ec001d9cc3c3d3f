package intersection

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ObservationDims is the number of observation features
const ObservationDims = 5

// Indices of the observation features
const (
	LocalVelocityX = iota // velocity along the agent's right axis
	LocalVelocityZ        // velocity along the agent's forward axis
	SignalStopped         // 1 if the nearest light requires a stop
	LeftWallRatio         // left wall distance / ray length
	RightWallRatio        // right wall distance / ray length
)

// neutralWallRatio is observed for both walls when not in the
// outgoing lane
const neutralWallRatio = 1.0

// WallHits holds the results of the two lateral ray casts. Distances
// of rays that hit nothing are 0.
type WallHits struct {
	Left, Right       float64
	LeftHit, RightHit bool
}

// Both returns whether both rays hit a wall
func (w WallHits) Both() bool {
	return w.LeftHit && w.RightHit
}

// ObservationEncoder builds the observation vector from the world
type ObservationEncoder struct {
	rayLength    float64
	signalRadius float64
	wallMask     Layer
	signalMask   Layer
}

// NewObservationEncoder returns an ObservationEncoder configured by c
func NewObservationEncoder(c Config) ObservationEncoder {
	return ObservationEncoder{
		rayLength:    c.RayLength,
		signalRadius: c.SignalRadius,
		wallMask:     c.WallMask,
		signalMask:   c.TrafficLightMask,
	}
}

// Encode returns the observation of the world for an agent in lane.
//
// The lateral wall ratios are only sensed in the outgoing lane; in the
// incoming lane both are reported as 1.
func (e ObservationEncoder) Encode(p Physics, lane Lane) *mat.VecDense {
	obs := mat.NewVecDense(ObservationDims, nil)
	pose := p.Pose()

	if v, ok := p.Velocity(); ok {
		obs.SetVec(LocalVelocityX, r3.Dot(v, pose.Right))
		obs.SetVec(LocalVelocityZ, r3.Dot(v, pose.Forward))
	}

	// Any light in range will do, the query gives no order
	signals := p.OverlapSignals(pose.Position, e.signalRadius, e.signalMask)
	if len(signals) > 0 {
		if signals[0] != nil && signals[0].Stopped() {
			obs.SetVec(SignalStopped, 1)
		}
	}

	if lane == Outgoing {
		hits := e.WallDistances(p)
		obs.SetVec(LeftWallRatio, hits.Left/e.rayLength)
		obs.SetVec(RightWallRatio, hits.Right/e.rayLength)
	} else {
		obs.SetVec(LeftWallRatio, neutralWallRatio)
		obs.SetVec(RightWallRatio, neutralWallRatio)
	}
	return obs
}

// WallDistances casts rays of the configured length to the agent's
// left and right
func (e ObservationEncoder) WallDistances(p Physics) WallHits {
	pose := p.Pose()

	var hits WallHits
	if d, ok := p.Raycast(pose.Position, r3.Scale(-1, pose.Right),
		e.rayLength, e.wallMask); ok {
		hits.Left, hits.LeftHit = d, true
	}
	if d, ok := p.Raycast(pose.Position, pose.Right, e.rayLength,
		e.wallMask); ok {
		hits.Right, hits.RightHit = d, true
	}
	return hits
}
