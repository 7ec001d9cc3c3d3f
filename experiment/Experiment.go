// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/drivelearn/agent"
	"github.com/samuelfneumann/drivelearn/environment/envconfig"
	"github.com/samuelfneumann/drivelearn/environment/intersection"
	"github.com/samuelfneumann/drivelearn/experiment/tracker"
)

// Experiment outlines structs that can run experiments. Experiments
// send each environment TimeStep to their Trackers, which cache the
// data they need in RAM. Save then writes all cached data to disk,
// usually after the experiment has been run. Run runs all episodes
// until the maximum timestep limit is reached, and RunEpisode runs a
// single episode.
type Experiment interface {
	Run() error

	// RunEpisode returns whether the step limit of the experiment has
	// been reached
	RunEpisode() (bool, error)

	// Save saves all tracked data to disk
	Save() error

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment. Useful if you want to track data only after
	// a specified event.
	Register(t tracker.Tracker)
}

// Summarizer is implemented by Trackers which also record the summary
// of each finished intersection episode
type Summarizer interface {
	Summarize(intersection.EpisodeSummary)
}

// Type is the type of an experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment
type Config struct {
	Type      Type              `json:"type"`
	MaxSteps  uint              `json:"max_steps"`
	EnvConf   envconfig.Config  `json:"environment"`
	AgentConf agent.TypedConfig `json:"agent"`
}

// Validate returns an error if the Config cannot create an experiment
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %q", c.Type)
	}
	if c.MaxSteps == 0 {
		return fmt.Errorf("validate: experiment must run for at least " +
			"one step")
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.AgentConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// CreateExp creates the experiment described by the Config. The
// environment and the agent are both seeded with seed. Trackers which
// are also Summarizers receive the summary of each finished episode.
func (c Config) CreateExp(seed uint64, t []tracker.Tracker) (*Online,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %w", err)
	}

	env, _, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %w",
			err)
	}

	a, err := c.AgentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %w", err)
	}

	for _, tr := range t {
		if s, ok := tr.(Summarizer); ok {
			env.OnEpisodeEnd(s.Summarize)
		}
	}

	return NewOnline(env, a, c.MaxSteps, t...), nil
}
