package experiment

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/drivelearn/agent"
	"github.com/samuelfneumann/drivelearn/agent/random"
	"github.com/samuelfneumann/drivelearn/environment"
	"github.com/samuelfneumann/drivelearn/environment/envconfig"
	"github.com/samuelfneumann/drivelearn/experiment/tracker"
	"github.com/samuelfneumann/drivelearn/experiment/trackers"
	ts "github.com/samuelfneumann/drivelearn/timestep"
	"github.com/samuelfneumann/drivelearn/utils/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// countdown is an environment whose episodes last length steps, each
// rewarded with 1
type countdown struct {
	length  int
	number  int
	failAt  int
	actions int
}

func (c *countdown) Reset() (ts.TimeStep, error) {
	c.number = 0
	return ts.New(ts.First, 0, 1, mat.NewVecDense(1, nil), 0), nil
}

func (c *countdown) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	c.actions++
	if c.failAt > 0 && c.actions == c.failAt {
		return ts.TimeStep{}, false, errors.New("physics exploded")
	}

	c.number++
	step := ts.New(ts.Mid, 1, 1, mat.NewVecDense(1, nil), c.number)
	if c.number == c.length {
		step.StepType = ts.Last
		step.SetEnd(ts.Timeout)
	}
	return step, step.Last(), nil
}

func (c *countdown) RewardSpec() environment.Spec      { return environment.Spec{} }
func (c *countdown) DiscountSpec() environment.Spec    { return environment.Spec{} }
func (c *countdown) ObservationSpec() environment.Spec { return environment.Spec{} }
func (c *countdown) ActionSpec() environment.Spec      { return environment.Spec{} }

// counter is an agent counting the calls it receives
type counter struct {
	first, observed, steps, ended int
}

func (c *counter) Step() error {
	c.steps++
	return nil
}

func (c *counter) Observe(mat.Vector, ts.TimeStep) error {
	c.observed++
	return nil
}

func (c *counter) ObserveFirst(ts.TimeStep) error {
	c.first++
	return nil
}

func (c *counter) EndEpisode() { c.ended++ }

func (c *counter) SelectAction(ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(3, nil)
}

func (c *counter) Eval()        {}
func (c *counter) Train()       {}
func (c *counter) IsEval() bool { return false }

// failingTracker fails to save
type failingTracker struct{}

func (failingTracker) Track(ts.TimeStep) error { return nil }
func (failingTracker) Save() error             { return errors.New("disk full") }

func TestOnlineRun(t *testing.T) {
	env := &countdown{length: 3}
	a := &counter{}
	ret := trackers.NewReturn("")
	length := trackers.NewEpisodeLength("")

	exp := NewOnline(env, a, 7, ret)
	exp.Register(length)
	require.NoError(t, exp.Run())

	assert.Equal(t, uint(7), exp.Steps())
	assert.Equal(t, 7, env.actions)

	// The third episode is cut off after one step
	assert.Equal(t, []float64{3, 3}, ret.Returns())
	assert.Equal(t, []float64{3, 3}, length.Lengths())

	assert.Equal(t, 3, a.first)
	assert.Equal(t, 7, a.observed)
	assert.Equal(t, 7, a.steps)
	assert.Equal(t, 2, a.ended)
}

func TestOnlineStepError(t *testing.T) {
	exp := NewOnline(&countdown{length: 3, failAt: 5}, &counter{}, 10)

	err := exp.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "physics exploded")
	assert.Equal(t, uint(5), exp.Steps())
}

func TestOnlineSaveJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	ret := trackers.NewReturn(filepath.Join(dir, "return.bin"))
	exp := NewOnline(&countdown{length: 2}, &counter{}, 4, failingTracker{},
		ret)
	require.NoError(t, exp.Run())

	err := exp.Save()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.FileExists(t, filepath.Join(dir, "return.bin"))
}

func TestConfigValidate(t *testing.T) {
	c := Config{
		Type:      OnlineExp,
		MaxSteps:  10,
		EnvConf:   envconfig.Default(),
		AgentConf: agent.NewTypedConfig(random.Config{}),
	}
	require.NoError(t, c.Validate())

	bad := c
	bad.Type = "Offline"
	assert.Error(t, bad.Validate())

	bad = c
	bad.MaxSteps = 0
	assert.Error(t, bad.Validate())

	bad = c
	bad.AgentConf = agent.TypedConfig{Type: agent.Random}
	assert.Error(t, bad.Validate())
}

func TestCreateExpOnIntersection(t *testing.T) {
	logf := monitoring.Logf
	monitoring.SetLogger(t.Logf)
	defer func() { monitoring.Logf = logf }()

	envConf := envconfig.Default()
	envConf.Environment.MaxSteps = 40
	c := Config{
		Type:      OnlineExp,
		MaxSteps:  200,
		EnvConf:   envConf,
		AgentConf: agent.NewTypedConfig(random.Config{}),
	}

	episodes, err := trackers.OpenEpisodes(filepath.Join(t.TempDir(),
		"episodes.db"))
	require.NoError(t, err)
	defer episodes.Close()
	length := trackers.NewEpisodeLength("")

	exp, err := c.CreateExp(3, []tracker.Tracker{episodes, length})
	require.NoError(t, err)
	require.NoError(t, exp.Run())
	require.NoError(t, episodes.Save())

	saved, err := episodes.List(episodes.RunID())
	require.NoError(t, err)
	require.NotEmpty(t, saved)
	require.Len(t, saved, len(length.Lengths()))
	for i, ep := range saved {
		assert.Equal(t, i+1, ep.Episode)
		assert.Equal(t, int(length.Lengths()[i]), ep.Steps)
		assert.NotEmpty(t, ep.Cause, "episode %d has no cause", ep.Episode)
		assert.LessOrEqual(t, ep.Steps, 40)
	}
}
