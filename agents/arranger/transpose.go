package arranger

import (
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
)

// Transpose shifts the pitches in a cell by semitones. Pitch cells keep their
// volume suffix, multi-pitch cells keep their layout, and every other cell
// comes back unchanged. Results are spelled with sharps. A pitch that would
// leave octaves 0..9 is left as it was.
func Transpose(cell string, semitones int) string {
	if turtle.IsPitch(cell) {
		return transposePitch(cell, semitones)
	}
	if !turtle.IsMultiPitch(cell) {
		return cell
	}

	parts := strings.Split(cell, ",")
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if !turtle.IsPitch(trimmed) {
			continue
		}
		parts[i] = strings.Replace(part, trimmed, transposePitch(trimmed, semitones), 1)
	}
	return strings.Join(parts, ",")
}

// TransposeRows applies Transpose to every cell of a block.
func TransposeRows(rows [][]string, semitones int) [][]string {
	out := make([][]string, len(rows))
	for r, row := range rows {
		out[r] = make([]string, len(row))
		for c, cell := range row {
			out[r][c] = Transpose(cell, semitones)
		}
	}
	return out
}

func transposePitch(cell string, semitones int) string {
	p, ok := turtle.ParsePitch(cell)
	if !ok {
		return cell
	}

	suffix := ""
	if _, volume, found := strings.Cut(cell, " "); found {
		suffix = " " + volume
	}

	if !p.HasOctave {
		return sharpNames[((p.PitchClass()+semitones)%12+12)%12] + suffix
	}

	n := p.MIDI() + semitones
	if n < 12 || n >= 132 {
		return cell
	}
	return MIDIToPitch(n) + suffix
}
