package models

// Coordinate is a zero-indexed (row, column) grid position.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Direction is the compass direction a turtle faces.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Clockwise returns the direction after turning right once.
func (d Direction) Clockwise() Direction {
	return (d + 1) % 4
}

// CounterClockwise returns the direction after turning left once.
func (d Direction) CounterClockwise() Direction {
	return (d + 3) % 4
}

func (d Direction) String() string {
	switch d {
	case North:
		return "n"
	case East:
		return "e"
	case South:
		return "s"
	case West:
		return "w"
	}
	return "?"
}

// CellValue is one visited cell: its raw content ("" for empty or out of
// range) and the walker's running volume at that point.
type CellValue struct {
	Value  string  `json:"value"`
	Volume float64 `json:"volume"`
}

// NoteEvent is a single materialized note. Rests are never events.
type NoteEvent struct {
	Pitch          string  `json:"pitch"`
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       float64 `json:"velocity"`
	StartBeats     Beat    `json:"startBeats"`
	DurationBeats  Beat    `json:"durationBeats"`
}

// EndBeats is the beat at which the note releases.
func (n NoteEvent) EndBeats() Beat {
	return n.StartBeats.Add(n.DurationBeats)
}

// Timeline is the compiled note sequence of one turtle run.
type Timeline struct {
	Events     []NoteEvent `json:"events"`
	TotalBeats Beat        `json:"totalBeats"`
}
