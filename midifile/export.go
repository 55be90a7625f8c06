// Package midifile writes turtle timelines to Standard MIDI Files and turns
// MIDI files back into sheets of turtle rows.
package midifile

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Part is one timeline to be written as a MIDI track.
type Part struct {
	Name     string
	Timeline models.Timeline
	// Speed scales the reference tempo; 0 means 1.
	Speed float64
	// Repeats is how many times the loop is written; 0 writes it once.
	Repeats int
}

// ExportOptions control the file layout.
type ExportOptions struct {
	TicksPerBeat     int
	ReferenceTempo   float64
	ChannelPerTurtle bool
}

// DefaultExportOptions matches the default config.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		TicksPerBeat:     960,
		ReferenceTempo:   turtle.DefaultReferenceTempo,
		ChannelPerTurtle: true,
	}
}

// PartsFromResults keeps every successful turtle run, named by its start cell.
func PartsFromResults(results []turtle.TurtleResult) []Part {
	parts := make([]Part, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		parts = append(parts, Part{
			Name:     r.Start,
			Timeline: r.Timeline,
			Speed:    r.Speed,
			Repeats:  r.Repeats,
		})
	}
	return parts
}

// timedMessage is a message at an absolute tick.
type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

// Export writes a format 1 file: a conductor track holding the reference
// tempo, then one track per part. A part's speed stretches its ticks, so it
// plays at reference tempo × speed against the shared tempo.
func Export(w io.Writer, parts []Part, opts ExportOptions) error {
	if opts.TicksPerBeat < 1 || opts.TicksPerBeat > math.MaxInt16 {
		return fmt.Errorf("ticks per beat %d out of range", opts.TicksPerBeat)
	}
	if opts.ReferenceTempo <= 0 {
		opts.ReferenceTempo = turtle.DefaultReferenceTempo
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(uint16(opts.TicksPerBeat))

	var conductor smf.Track
	conductor.Add(0, smf.MetaTrackSequenceName("turtles"))
	conductor.Add(0, smf.MetaTempo(opts.ReferenceTempo))
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return fmt.Errorf("failed to add conductor track: %w", err)
	}

	for i, part := range parts {
		channel := uint8(0)
		if opts.ChannelPerTurtle {
			channel = channelFor(i)
		}
		if err := s.Add(partTrack(part, channel, opts.TicksPerBeat)); err != nil {
			return fmt.Errorf("failed to add track %q: %w", part.Name, err)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi: %w", err)
	}

	log.Printf("✅ MIDI export: %d tracks at %.0f BPM", len(parts), opts.ReferenceTempo)
	return nil
}

// channelFor spreads parts over the 15 melodic channels, skipping the
// General MIDI drum channel.
func channelFor(i int) uint8 {
	ch := uint8(i % 15)
	if ch >= 9 {
		ch++
	}
	return ch
}

func partTrack(part Part, channel uint8, ticksPerBeat int) smf.Track {
	speed := part.Speed
	if speed <= 0 {
		speed = 1
	}
	copies := max(part.Repeats, 1)

	toTick := func(b models.Beat) uint32 {
		return uint32(math.Round(b.Float64() * float64(ticksPerBeat) / speed))
	}

	var messages []timedMessage
	loop := part.Timeline.TotalBeats
	for k := 0; k < copies; k++ {
		offset := loop.MulInt(int64(k))
		for _, ev := range part.Timeline.Events {
			key := uint8(clamp(ev.MidiNoteNumber, 0, 127))
			velocity := uint8(clamp(int(math.Round(ev.Velocity*127)), 1, 127))
			start := offset.Add(ev.StartBeats)
			messages = append(messages,
				timedMessage{tick: toTick(start), msg: midi.NoteOn(channel, key, velocity)},
				timedMessage{tick: toTick(start.Add(ev.DurationBeats)), off: true, msg: midi.NoteOff(channel, key)},
			)
		}
	}

	// Note offs go first on a shared tick so a repeated pitch retriggers.
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].tick != messages[j].tick {
			return messages[i].tick < messages[j].tick
		}
		return messages[i].off && !messages[j].off
	})

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(part.Name))
	var last uint32
	for _, m := range messages {
		track.Add(m.tick-last, m.msg)
		last = m.tick
	}

	end := toTick(loop.MulInt(int64(copies)))
	if end < last {
		end = last
	}
	track.Close(end - last)
	return track
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
