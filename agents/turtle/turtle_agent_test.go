package turtle

import (
	"context"
	"testing"

	"github.com/Conceptual-Machines/magda-turtles-go/config"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var agentGrid = testGrid{
	{"!turtle(A3, r m3)", "!turtle(A4:A5, r m1, 320, 2)", "!turtle(ZZ, m1)", "!turtle(A3, A4)"},
	{},
	{"C4", "D4", "E4", "F4"},
	{"G4", "A4"},
	{"B4", "C5"},
}

func newTestAgent(t *testing.T, workers int) *TurtleAgent {
	t.Helper()
	cfg := config.Default()
	cfg.Run.Workers = workers
	agent, err := NewTurtleAgent(cfg)
	require.NoError(t, err)
	return agent
}

func pitches(tl models.Timeline) []string {
	out := make([]string, len(tl.Events))
	for i, e := range tl.Events {
		out[i] = e.Pitch
	}
	return out
}

func TestTurtleAgent_RunSheet(t *testing.T) {
	agent := newTestAgent(t, 4)

	results, err := agent.RunSheet(context.Background(), agentGrid)
	require.NoError(t, err)
	require.Len(t, results, 5)

	t.Run("single start", func(t *testing.T) {
		r := results[0]
		assert.NoError(t, r.Err)
		assert.Equal(t, models.Coordinate{Row: 0, Col: 0}, r.Origin)
		assert.Equal(t, "A3", r.Start)
		assert.Equal(t, []string{"C4", "D4", "E4", "F4"}, pitches(r.Timeline))
		assert.Equal(t, 1.0, r.Speed)
		assert.Zero(t, r.StopBeats, "zero repeats loops forever")
	})

	t.Run("range starts run independently", func(t *testing.T) {
		for i, expected := range [][]string{{"G4", "A4"}, {"B4", "C5"}} {
			r := results[1+i]
			assert.NoError(t, r.Err)
			assert.Equal(t, models.Coordinate{Row: 0, Col: 1}, r.Origin)
			assert.Equal(t, "!turtle(A4:A5, r m1, 320, 2)", r.Declaration)
			assert.Equal(t, expected, pitches(r.Timeline))
			assert.Equal(t, 2.0, r.Speed)
			assert.Equal(t, 2, r.Repeats)
			assert.Equal(t, 2.0, r.StopBeats)
		}
		assert.Equal(t, "A4", results[1].Start)
		assert.Equal(t, "A5", results[2].Start)
	})

	t.Run("bad start is reported on its own result", func(t *testing.T) {
		r := results[3]
		assert.ErrorIs(t, r.Err, ErrInvalidAddress)
		assert.Contains(t, r.Error, "turtle at C1")
		assert.Empty(t, r.Timeline.Events)
	})

	t.Run("span form plays the rectangle", func(t *testing.T) {
		r := results[4]
		assert.NoError(t, r.Err)
		assert.Equal(t, []string{"C4", "G4"}, pitches(r.Timeline))
	})
}

func TestTurtleAgent_WorkersDoNotChangeResults(t *testing.T) {
	serial, err := newTestAgent(t, 1).RunSheet(context.Background(), agentGrid)
	require.NoError(t, err)
	parallel, err := newTestAgent(t, 8).RunSheet(context.Background(), agentGrid)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestTurtleAgent_Diagnostics(t *testing.T) {
	grid := testGrid{
		{"!turtle(A2, r x m1, fast)"},
		{"C4", "D4"},
	}

	results, err := newTestAgent(t, 1).RunSheet(context.Background(), grid)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.NoError(t, r.Err)
	assert.Equal(t, []string{"C4", "D4"}, pitches(r.Timeline))
	require.Len(t, r.Diagnostics, 2)
	assert.Contains(t, r.Diagnostics[0], "ignoring speed")
	assert.Contains(t, r.Diagnostics[1], "unrecognized")
}

func TestTurtleAgent_OversizedRangeFailsAlone(t *testing.T) {
	grid := testGrid{
		{"!turtle(A1:ZZZZZZZ9999999, m)", "!turtle(ZZZZZZZZZZZZZZZ1, w m1)", "!turtle(A2, r m1)"},
		{"C4", "D4"},
	}

	results, err := newTestAgent(t, 2).RunSheet(context.Background(), grid)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, ErrInvalidAddress)
	assert.Contains(t, results[0].Error, "turtle at A1")
	assert.ErrorIs(t, results[1].Err, ErrInvalidAddress)
	assert.Empty(t, results[1].Walk.Trace)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, []string{"C4", "D4"}, pitches(results[2].Timeline))
}

func TestTurtleAgent_NoTurtles(t *testing.T) {
	results, err := newTestAgent(t, 2).RunSheet(context.Background(), testGrid{{"C4", "D4"}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTurtleAgent_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAgent(t, 2).RunSheet(ctx, agentGrid)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTurtleAgent(t *testing.T) {
	agent, err := NewTurtleAgent(nil)
	require.NoError(t, err)
	assert.Equal(t, 160.0, agent.referenceTempo)
	assert.Equal(t, 0.625, agent.pipeline.Volume)

	cfg := config.Default()
	cfg.Dynamics.Default = "loud"
	_, err = NewTurtleAgent(cfg)
	assert.Error(t, err)
}
