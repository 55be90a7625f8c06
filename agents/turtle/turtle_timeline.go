package turtle

import (
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/models"
)

// noteState is the running state of the timeline compiler. Every transition
// takes a state by value and returns the next one together with any notes it
// finished.
type noteState struct {
	now models.Beat

	octave       int
	prevPosition int // chromatic position of the last pitch, 0 before any
	volume       float64
	walkVolume   float64

	open       bool
	start      models.Beat
	length     models.Beat
	pitch      Pitch
	noteVolume float64
}

func newNoteState(volume float64) noteState {
	return noteState{
		now:        models.Whole(0),
		octave:     4,
		volume:     volume,
		walkVolume: volume,
	}
}

// Compile turns visited cells into a timeline with the default dynamic.
func Compile(values []models.CellValue) models.Timeline {
	return DefaultPipeline().Compile(values)
}

// Compile turns the cells a turtle visited into a timeline. Each cell lasts
// one beat; multi-pitch cells split their beat evenly between their parts.
func (p Pipeline) Compile(values []models.CellValue) models.Timeline {
	state := newNoteState(p.Volume)
	events := make([]models.NoteEvent, 0, len(values))

	for _, cell := range values {
		var done []models.NoteEvent
		state, done = state.record(cell)
		events = append(events, done...)
	}

	if last, ok := state.close(); ok {
		events = append(events, last)
	}

	return models.Timeline{
		Events:     events,
		TotalBeats: models.Whole(int64(len(values))),
	}
}

// record consumes one visited cell.
func (s noteState) record(cell models.CellValue) (noteState, []models.NoteEvent) {
	// A volume change coming from the walker is the legacy in-instruction
	// dynamic; it replaces the running volume until a cell says otherwise.
	if cell.Volume != s.walkVolume {
		s.walkVolume = cell.Volume
		s.volume = cell.Volume
	}

	if !isSubdivision(cell.Value) {
		return s.element(cell.Value, models.Whole(1))
	}

	parts := strings.Split(cell.Value, ",")
	span := models.Fraction(1, int64(len(parts)))
	var events []models.NoteEvent
	for _, part := range parts {
		var done []models.NoteEvent
		s, done = s.element(strings.TrimSpace(part), span)
		events = append(events, done...)
	}
	return s, events
}

// isSubdivision reports whether a cell splits its beat: a multi-pitch cell, or
// a comma list of only sustains and rests such as "s,s" or "-, ".
func isSubdivision(value string) bool {
	if IsMultiPitch(value) {
		return true
	}
	if !strings.Contains(value, ",") {
		return false
	}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" && !IsSustain(part) {
			return false
		}
	}
	return true
}

// element consumes a pitch, sustain or rest lasting span beats.
func (s noteState) element(value string, span models.Beat) (noteState, []models.NoteEvent) {
	var events []models.NoteEvent

	switch p, ok := ParsePitch(value); {
	case ok:
		if done, wasOpen := s.close(); wasOpen {
			events = append(events, done)
		}
		s = s.begin(p)
		s.length = span
	case IsSustain(value):
		if s.open {
			s.length = s.length.Add(span)
		}
	default:
		if done, wasOpen := s.close(); wasOpen {
			events = append(events, done)
		}
		s.open = false
	}

	s.now = s.now.Add(span)
	return s, events
}

// begin starts a note at the current beat, inferring its octave and volume.
func (s noteState) begin(p Pitch) noteState {
	if p.HasOctave {
		s.octave = p.Octave
	} else {
		// Moving down or staying put in C..B order means the line wrapped
		// into the next octave.
		if s.prevPosition != 0 && p.Position() <= s.prevPosition {
			s.octave++
		}
		p.Octave = s.octave
		p.HasOctave = true
	}
	s.prevPosition = p.Position()

	if p.HasVolume {
		s.volume = p.Volume
	}

	s.open = true
	s.start = s.now
	s.pitch = p
	s.noteVolume = s.volume
	return s
}

// close materializes the open note, if any.
func (s noteState) close() (models.NoteEvent, bool) {
	if !s.open {
		return models.NoteEvent{}, false
	}
	return models.NoteEvent{
		Pitch:          s.pitch.Name(),
		MidiNoteNumber: s.pitch.MIDI(),
		Velocity:       s.noteVolume,
		StartBeats:     s.start,
		DurationBeats:  s.length,
	}, true
}
