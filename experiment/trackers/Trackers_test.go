package trackers

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/drivelearn/environment/intersection"
	"github.com/samuelfneumann/drivelearn/experiment/tracker"
	ts "github.com/samuelfneumann/drivelearn/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// episode returns the timesteps of an episode with the given rewards,
// the last of which ends it with end
func episode(end ts.EndType, rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 0.99, nil, 0)}
	for i, r := range rewards {
		step := ts.New(ts.Mid, r, 0.99, nil, i+1)
		if i == len(rewards)-1 {
			step.StepType = ts.Last
			step.SetEnd(end)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturnAndLength(t *testing.T) {
	dir := t.TempDir()
	ret := NewReturn(filepath.Join(dir, "return.bin"))
	length := NewEpisodeLength(filepath.Join(dir, "length.bin"))

	steps := append(episode(ts.TerminalStateReached, 1, 2, 3),
		episode(ts.Timeout, -1, -1)...)
	for _, s := range steps {
		require.NoError(t, ret.Track(s))
		require.NoError(t, length.Track(s))
	}

	assert.Equal(t, []float64{6, -2}, ret.Returns())
	assert.Equal(t, []float64{3, 2}, length.Lengths())

	require.NoError(t, ret.Save())
	require.NoError(t, length.Save())

	data, err := tracker.LoadData(filepath.Join(dir, "return.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{6, -2}, data)

	data, err = tracker.LoadData(filepath.Join(dir, "length.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2}, data)

	_, err = tracker.LoadData(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestReturnRejectsGaps(t *testing.T) {
	r := NewReturn("")
	require.NoError(t, r.Track(ts.New(ts.First, 0, 1, nil, 0)))
	assert.Error(t, r.Track(ts.New(ts.Mid, 1, 1, nil, 2)))

	// Tracking recovers at the next episode
	for _, s := range episode(ts.Timeout, 4) {
		require.NoError(t, r.Track(s))
	}
	assert.Equal(t, []float64{4}, r.Returns())
}

func TestEpisodes(t *testing.T) {
	e, err := OpenEpisodes(filepath.Join(t.TempDir(), "episodes.db"))
	require.NoError(t, err)
	defer e.Close()

	first := episode(ts.TerminalStateReached, -0.5, 10)
	for i, s := range first {
		if i == len(first)-1 {
			e.Summarize(intersection.EpisodeSummary{Cause: intersection.TargetHit})
		}
		require.NoError(t, e.Track(s))
	}
	for _, s := range episode(ts.Timeout, -0.5, -0.5, -5) {
		require.NoError(t, e.Track(s))
	}

	require.NoError(t, e.Save())
	require.NoError(t, e.Save(), "saving twice writes nothing new")

	episodes, err := e.List(e.RunID())
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	assert.Equal(t, 1, episodes[0].Episode)
	assert.InDelta(t, 9.5, episodes[0].Return, 1e-12)
	assert.Equal(t, 2, episodes[0].Steps)
	assert.Equal(t, ts.TerminalStateReached.String(), episodes[0].EndType)
	assert.Equal(t, "TargetHit", episodes[0].Cause)

	assert.Equal(t, 2, episodes[1].Episode)
	assert.InDelta(t, -6, episodes[1].Return, 1e-12)
	assert.Equal(t, ts.Timeout.String(), episodes[1].EndType)
	assert.Empty(t, episodes[1].Cause)
	assert.NotEqual(t, episodes[0].EpisodeID, episodes[1].EpisodeID)

	others, err := e.List("another run")
	require.NoError(t, err)
	assert.Empty(t, others)
}
