package experiment

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/drivelearn/agent"
	env "github.com/samuelfneumann/drivelearn/environment"
	"github.com/samuelfneumann/drivelearn/experiment/tracker"
	ts "github.com/samuelfneumann/drivelearn/timestep"
	"github.com/samuelfneumann/drivelearn/utils/monitoring"
	"github.com/samuelfneumann/drivelearn/utils/progressbar"
)

var _ Experiment = (*Online)(nil)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps     uint
	currentSteps uint
	episodes     int
	trackers     []tracker.Tracker
	progressBar  *progressbar.ManualProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter
// is a slice of tracker.Tracker which determine what data is saved.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t ...tracker.Tracker) *Online {
	return &Online{Environment: e, Agent: a, maxSteps: steps, trackers: t}
}

// ShowProgress displays the progress of the experiment on p after each
// episode
func (o *Online) ShowProgress(p *progressbar.ManualProgressBar) {
	o.progressBar = p
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Steps returns the number of timesteps run so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment. An episode cut
// off by the step limit of the experiment is not reported to the
// agent as finished.
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: could not reset: %w", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	if err := o.track(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++
		if o.progressBar != nil {
			o.progressBar.Increment()
		}

		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: step %d: %w",
				o.currentSteps, err)
		}

		if err := o.track(step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.Agent.Step(); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
	}

	if step.Last() {
		o.episodes++
		o.Agent.EndEpisode()
	}

	if o.progressBar != nil {
		o.progressBar.SetStatus("episode %d", o.episodes)
		o.progressBar.Display()
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if ended {
			break
		}
	}

	if o.progressBar != nil {
		o.progressBar.Close()
	}
	monitoring.Logf("experiment finished: %d steps, %d episodes",
		o.currentSteps, o.episodes)
	return nil
}

// Save saves all the data cached by the Trackers. Every Tracker is
// saved even if an earlier one fails.
func (o *Online) Save() error {
	var errs []error
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) error {
	for _, tr := range o.trackers {
		if err := tr.Track(t); err != nil {
			return fmt.Errorf("track: %w", err)
		}
	}
	return nil
}
