package midifile

import (
	"bytes"
	"testing"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func melody() models.Timeline {
	return models.Timeline{
		Events: []models.NoteEvent{
			{Pitch: "C4", MidiNoteNumber: 60, Velocity: 0.625, StartBeats: models.Whole(0), DurationBeats: models.Whole(1)},
			{Pitch: "E4", MidiNoteNumber: 64, Velocity: 0.625, StartBeats: models.Whole(1), DurationBeats: models.Whole(2)},
			{Pitch: "G4", MidiNoteNumber: 67, Velocity: 1, StartBeats: models.Whole(3), DurationBeats: models.Fraction(1, 2)},
		},
		TotalBeats: models.Whole(4),
	}
}

// noteOn is a note start found in a written track.
type noteOn struct {
	tick     uint32
	channel  uint8
	key      uint8
	velocity uint8
}

func noteOns(track smf.Track) []noteOn {
	var out []noteOn
	var tick uint32
	for _, ev := range track {
		tick += ev.Delta
		var ch, key, vel uint8
		if midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
			out = append(out, noteOn{tick: tick, channel: ch, key: key, velocity: vel})
		}
	}
	return out
}

func readBack(t *testing.T, buf *bytes.Buffer) *smf.SMF {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return s
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	parts := []Part{{Name: "A2", Timeline: melody(), Speed: 1}}
	require.NoError(t, Export(&buf, parts, DefaultExportOptions()))

	s := readBack(t, &buf)
	require.Len(t, s.Tracks, 2, "conductor plus one part")

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	require.True(t, ok)
	assert.Equal(t, uint16(960), uint16(ticks))

	var bpm float64
	found := false
	for _, ev := range s.Tracks[0] {
		if ev.Message.GetMetaTempo(&bpm) {
			found = true
		}
	}
	require.True(t, found)
	assert.InDelta(t, 160, bpm, 0.01)

	assert.Equal(t, []noteOn{
		{tick: 0, channel: 0, key: 60, velocity: 79},
		{tick: 960, channel: 0, key: 64, velocity: 79},
		{tick: 2880, channel: 0, key: 67, velocity: 127},
	}, noteOns(s.Tracks[1]))
}

func TestExport_SpeedAndRepeats(t *testing.T) {
	var buf bytes.Buffer
	parts := []Part{{Name: "A2", Timeline: melody(), Speed: 2, Repeats: 2}}
	require.NoError(t, Export(&buf, parts, DefaultExportOptions()))

	ons := noteOns(readBack(t, &buf).Tracks[1])
	require.Len(t, ons, 6)

	ticks := make([]uint32, len(ons))
	for i, on := range ons {
		ticks[i] = on.tick
	}
	// Double speed halves every position; the second copy starts after one
	// loop of 4 beats.
	assert.Equal(t, []uint32{0, 480, 1440, 1920, 2400, 3360}, ticks)
}

func TestExport_Channels(t *testing.T) {
	var parts []Part
	for i := 0; i < 11; i++ {
		parts = append(parts, Part{Name: "p", Timeline: melody()})
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, parts, DefaultExportOptions()))
	s := readBack(t, &buf)
	require.Len(t, s.Tracks, 12)

	assert.Equal(t, uint8(0), noteOns(s.Tracks[1])[0].channel)
	assert.Equal(t, uint8(8), noteOns(s.Tracks[9])[0].channel)
	assert.Equal(t, uint8(10), noteOns(s.Tracks[10])[0].channel, "drum channel is skipped")

	buf.Reset()
	opts := DefaultExportOptions()
	opts.ChannelPerTurtle = false
	require.NoError(t, Export(&buf, parts, opts))
	assert.Equal(t, uint8(0), noteOns(readBack(t, &buf).Tracks[10])[0].channel)
}

func TestExport_RepeatedPitchRetriggers(t *testing.T) {
	timeline := models.Timeline{
		Events: []models.NoteEvent{
			{MidiNoteNumber: 60, Velocity: 0.5, StartBeats: models.Whole(0), DurationBeats: models.Whole(1)},
			{MidiNoteNumber: 60, Velocity: 0.5, StartBeats: models.Whole(1), DurationBeats: models.Whole(1)},
		},
		TotalBeats: models.Whole(2),
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, []Part{{Name: "A2", Timeline: timeline}}, DefaultExportOptions()))

	var order []string
	for _, ev := range readBack(t, &buf).Tracks[1] {
		var ch, key, vel uint8
		msg := midi.Message(ev.Message)
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			order = append(order, "on")
		case msg.GetNoteEnd(&ch, &key):
			order = append(order, "off")
		}
	}
	assert.Equal(t, []string{"on", "off", "on", "off"}, order)
}

func TestExport_InvalidResolution(t *testing.T) {
	opts := DefaultExportOptions()
	opts.TicksPerBeat = 0
	assert.Error(t, Export(&bytes.Buffer{}, nil, opts))
}

func TestPartsFromResults(t *testing.T) {
	results := []turtle.TurtleResult{
		{Run: turtle.Run{Start: "A2", Timeline: melody()}, Speed: 1},
		{Err: assert.AnError},
		{Run: turtle.Run{Start: "B2"}, Speed: 0.5, Repeats: 3},
	}

	parts := PartsFromResults(results)
	require.Len(t, parts, 2)
	assert.Equal(t, "A2", parts[0].Name)
	assert.Equal(t, "B2", parts[1].Name)
	assert.Equal(t, 3, parts[1].Repeats)
}

func TestImport_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, []Part{{Name: "A2", Timeline: melody()}}, DefaultExportOptions()))

	s, err := Import(&buf, ImportOptions{Resolution: 2, ReferenceTempo: 160})
	require.NoError(t, err)

	assert.Equal(t, "!turtle(A2:A2, r m6, 320, 1)", s.Cell(0, 0))
	assert.Equal(t, []string{"C4 0.62", "-", "E4", "-", "-", "-", "G4 1"}, s.Rows()[1])

	// The imported row plays back as the original melody at two cells per beat.
	decl, err := turtle.ParseDeclaration(s.Cell(0, 0), 160)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, decl.Speed, 1e-9)

	run, err := turtle.DefaultPipeline().Run("A2", decl.Moves, s)
	require.NoError(t, err)
	require.Len(t, run.Timeline.Events, 3)
	assert.Equal(t, "C4", run.Timeline.Events[0].Pitch)
	assert.Equal(t, models.Whole(2), run.Timeline.Events[0].DurationBeats)
	assert.InDelta(t, 0.62, run.Timeline.Events[0].Velocity, 1e-9)
	assert.Equal(t, "E4", run.Timeline.Events[1].Pitch)
	assert.Equal(t, models.Whole(4), run.Timeline.Events[1].DurationBeats)
	assert.InDelta(t, 0.62, run.Timeline.Events[1].Velocity, 1e-9)
	assert.Equal(t, "G4", run.Timeline.Events[2].Pitch)
	assert.InDelta(t, 1.0, run.Timeline.Events[2].Velocity, 1e-9)
}

func TestImport_SplitsOverlappingNotes(t *testing.T) {
	chord := models.Timeline{
		Events: []models.NoteEvent{
			{MidiNoteNumber: 60, Velocity: 0.5, StartBeats: models.Whole(0), DurationBeats: models.Whole(2)},
			{MidiNoteNumber: 64, Velocity: 0.5, StartBeats: models.Whole(0), DurationBeats: models.Whole(2)},
			{MidiNoteNumber: 67, Velocity: 0.5, StartBeats: models.Whole(2), DurationBeats: models.Whole(1)},
		},
		TotalBeats: models.Whole(3),
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, []Part{{Name: "A2", Timeline: chord}}, DefaultExportOptions()))

	s, err := Import(&buf, ImportOptions{Resolution: 1})
	require.NoError(t, err)

	rows := s.Rows()
	require.Len(t, rows, 3, "declaration plus two streams")
	assert.Equal(t, "!turtle(A2:A3, r m2, 160, 1)", rows[0][0])
	// Higher notes are taken first when starts coincide.
	assert.Equal(t, []string{"E4 0.5", "-", "G4"}, rows[1])
	assert.Equal(t, []string{"C4 0.5", "-", ""}, rows[2])
}

func TestImport_Errors(t *testing.T) {
	t.Run("not midi", func(t *testing.T) {
		_, err := Import(bytes.NewReader([]byte("hello")), DefaultImportOptions())
		assert.Error(t, err)
	})

	t.Run("no notes", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, nil, DefaultExportOptions()))
		_, err := Import(&buf, DefaultImportOptions())
		assert.ErrorIs(t, err, ErrNoNotes)
	})

	t.Run("bad resolution", func(t *testing.T) {
		_, err := Import(bytes.NewReader(nil), ImportOptions{Resolution: 0})
		assert.Error(t, err)
	})
}
