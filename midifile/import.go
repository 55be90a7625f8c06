package midifile

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strconv"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/arranger"
	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/Conceptual-Machines/magda-turtles-go/sheet"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrNoNotes is returned when a file has nothing a turtle could play.
var ErrNoNotes = errors.New("midi file contains no playable notes")

// ImportOptions control quantisation.
type ImportOptions struct {
	// Resolution is the number of cells per beat.
	Resolution     int
	ReferenceTempo float64
}

// DefaultImportOptions quantises to sixteenth notes.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{Resolution: 4, ReferenceTempo: turtle.DefaultReferenceTempo}
}

// note is a paired note on/off, first in ticks and then in cells.
type note struct {
	key      uint8
	velocity uint8
	start    int
	end      int
}

// Import reads a Standard MIDI File and lays it out as a sheet: one row per
// monophonic stream starting at A2, with a single range turtle in A1 that
// walks every row once at the file's tempo.
func Import(r io.Reader, opts ImportOptions) (*sheet.Sheet, error) {
	if opts.Resolution < 1 {
		return nil, fmt.Errorf("resolution must be at least 1 (got %d)", opts.Resolution)
	}
	if opts.ReferenceTempo <= 0 {
		opts.ReferenceTempo = turtle.DefaultReferenceTempo
	}

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read midi: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v", s.TimeFormat)
	}

	bpm := 120.0
	tempoFound := false
	var streams [][]note
	for _, track := range s.Tracks {
		notes := pairNotes(track, &bpm, &tempoFound)
		for i := range notes {
			notes[i].start = quantise(notes[i].start, int(ticks), opts.Resolution)
			notes[i].end = max(quantise(notes[i].end, int(ticks), opts.Resolution), notes[i].start+1)
		}
		streams = append(streams, splitStreams(notes)...)
	}
	if len(streams) == 0 {
		return nil, ErrNoNotes
	}

	length := 0
	for _, stream := range streams {
		length = max(length, stream[len(stream)-1].end)
	}

	out := sheet.New(nil)
	decl := turtle.Declaration{
		Start:   fmt.Sprintf("A2:A%d", len(streams)+1),
		Moves:   fmt.Sprintf("r m%d", length-1),
		Speed:   importSpeed(bpm, opts),
		Repeats: 1,
	}
	out.Set(models.Coordinate{Row: 0, Col: 0}, decl.String())
	for i, stream := range streams {
		out.SetBlock(models.Coordinate{Row: i + 1, Col: 0}, [][]string{streamCells(stream, length)})
	}

	log.Printf("✅ MIDI import: %d turtles, %d cells at %.0f BPM", len(streams), length, bpm)
	return out, nil
}

// pairNotes matches note offs to the most recent unmatched note on of the same
// key and returns the notes in order of their start. The first tempo seen in
// any track sets bpm.
func pairNotes(track smf.Track, bpm *float64, tempoFound *bool) []note {
	active := make(map[uint8][]note)
	var notes []note
	tick := 0

	for _, ev := range track {
		tick += int(ev.Delta)

		var tempo float64
		if !*tempoFound && ev.Message.GetMetaTempo(&tempo) {
			*bpm = tempo
			*tempoFound = true
			continue
		}

		msg := midi.Message(ev.Message)
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			active[key] = append(active[key], note{key: key, velocity: vel, start: tick})
		case msg.GetNoteEnd(&ch, &key):
			open := active[key]
			if len(open) == 0 {
				continue
			}
			n := open[len(open)-1]
			active[key] = open[:len(open)-1]
			n.end = tick
			notes = append(notes, n)
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].start != notes[j].start {
			return notes[i].start < notes[j].start
		}
		return notes[i].key > notes[j].key
	})
	return notes
}

func quantise(tick, ticksPerBeat, resolution int) int {
	return int(math.Round(float64(tick) * float64(resolution) / float64(ticksPerBeat)))
}

// splitStreams peels off non-overlapping runs of notes: each pass takes every
// note that starts after the previous one taken has ended, and what is left
// goes to the next pass. Notes no pitch cell can name are dropped.
func splitStreams(notes []note) [][]note {
	var remaining []note
	for _, n := range notes {
		if n.key < 12 {
			log.Printf("⚠️  MIDI import: dropping note %d below C0", n.key)
			continue
		}
		remaining = append(remaining, n)
	}

	var streams [][]note
	for len(remaining) > 0 {
		var stream, rest []note
		end := 0
		for _, n := range remaining {
			if n.start >= end {
				stream = append(stream, n)
				end = n.end
			} else {
				rest = append(rest, n)
			}
		}
		streams = append(streams, stream)
		remaining = rest
	}
	return streams
}

// streamCells writes a stream as pitch cells followed by sustains. A volume
// suffix is added whenever the velocity differs from the previous note's.
func streamCells(stream []note, length int) []string {
	cells := make([]string, length)
	velocity := uint8(0)
	for _, n := range stream {
		cell := arranger.MIDIToPitch(int(n.key))
		if n.velocity != velocity {
			velocity = n.velocity
			cell += " " + strconv.FormatFloat(math.Round(float64(velocity)/127*100)/100, 'f', -1, 64)
		}
		cells[n.start] = cell
		for i := n.start + 1; i < n.end && i < length; i++ {
			cells[i] = "-"
		}
	}
	return cells
}

// importSpeed converts the file tempo into a turtle speed. Cells play at
// bpm × resolution per minute; written as an absolute tempo when that is
// above 10, which the declaration parser divides by the reference tempo.
func importSpeed(bpm float64, opts ImportOptions) float64 {
	perMinute := bpm * float64(opts.Resolution)
	if perMinute > 10 {
		return math.Round(perMinute)
	}
	return perMinute / opts.ReferenceTempo
}
