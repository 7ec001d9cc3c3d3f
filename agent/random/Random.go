// Package random implements an agent which acts uniformly at random
// within the environment's action bounds
package random

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samuelfneumann/drivelearn/agent"
	"github.com/samuelfneumann/drivelearn/environment"
	"github.com/samuelfneumann/drivelearn/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func init() {
	agent.Register(agent.Random, Config{})
}

// Config implements a configuration of the Random agent
type Config struct{}

// CreateAgent creates a Random agent for env
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env.ActionSpec(), seed)
}

// Validate always returns nil, the Random agent has no parameters
func (c Config) Validate() error {
	return nil
}

// Type returns the type of agent the Config creates
func (c Config) Type() agent.Type {
	return agent.Random
}

// Random selects each action feature independently and uniformly at
// random from its bounds. It does not learn.
type Random struct {
	dims []distuv.Uniform
	eval bool
}

// New returns a new Random agent acting within the bounds of the
// action spec
func New(spec environment.Spec, seed uint64) (*Random, error) {
	if spec.Type != environment.Action {
		return nil, fmt.Errorf("new: expected an action spec, got %v",
			spec.Type)
	}

	src := rand.NewPCG(seed, seed)
	n := spec.LowerBound.Len()
	dims := make([]distuv.Uniform, n)
	for i := 0; i < n; i++ {
		min, max := spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i)
		if math.IsInf(min, 0) || math.IsInf(max, 0) || min > max {
			return nil, fmt.Errorf("new: action feature %d has unusable "+
				"bounds [%v, %v]", i, min, max)
		}
		dims[i] = distuv.Uniform{Min: min, Max: max, Src: src}
	}
	return &Random{dims: dims}, nil
}

// SelectAction returns a uniformly random action
func (r *Random) SelectAction(timestep.TimeStep) *mat.VecDense {
	action := mat.NewVecDense(len(r.dims), nil)
	for i, d := range r.dims {
		action.SetVec(i, d.Rand())
	}
	return action
}

func (r *Random) Step() error { return nil }
func (r *Random) Observe(mat.Vector, timestep.TimeStep) error { return nil }
func (r *Random) ObserveFirst(timestep.TimeStep) error { return nil }
func (r *Random) EndEpisode() {}
func (r *Random) Eval() { r.eval = true }
func (r *Random) Train() { r.eval = false }
func (r *Random) IsEval() bool { return r.eval }
