package arranger

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
)

// ChordToMIDI converts chord symbols to MIDI note numbers
// Supports: C, Em, Am7, Cmaj7, Emin/G (inversions), etc.
// Returns slice of MIDI note numbers (0-127) for the chord, C4 = 60
func ChordToMIDI(chordSymbol string, octave int) ([]int, error) {
	baseChord, bassNote := splitBass(chordSymbol)

	root, err := parseRootNote(baseChord)
	if err != nil {
		return nil, fmt.Errorf("invalid chord root: %w", err)
	}
	rootMIDI := noteToMIDI(root, octave)

	intervals := buildChordIntervals(parseChordQuality(baseChord), parseExtensions(baseChord))

	notes := make([]int, 0, len(intervals)+1)
	for _, interval := range intervals {
		midiNote := rootMIDI + interval
		if midiNote < 0 || midiNote > 127 {
			continue // Skip out-of-range notes
		}
		notes = append(notes, midiNote)
	}

	// Slash chords put the bass note an octave below the root
	if bassNote != "" {
		if bassRoot, err := parseRootNote(bassNote); err == nil {
			bassMIDI := noteToMIDI(bassRoot, octave-1)
			if bassMIDI >= 0 && bassMIDI <= 127 {
				notes = append([]int{bassMIDI}, notes...)
			}
		}
	}

	if len(notes) == 0 {
		return nil, fmt.Errorf("no valid MIDI notes generated for chord: %s", chordSymbol)
	}

	return notes, nil
}

// ChordNotes spells a chord as pitch cells, e.g. ("C", "maj7", 4, 0) gives
// C4 E4 G4 B4. Inversion rotates the lowest notes to the top before octaves
// are assigned, so each note is placed above the one before it.
func ChordNotes(root, quality string, octave, inversion int) ([]string, error) {
	symbol := root + quality
	name, err := parseRootNote(symbol)
	if err != nil {
		return nil, fmt.Errorf("invalid chord root: %w", err)
	}
	if octave < 0 || octave > 9 {
		return nil, fmt.Errorf("octave %d out of range 0..9", octave)
	}

	rootPitch, _ := turtle.ParsePitch(name)
	intervals := buildChordIntervals(parseChordQuality(symbol), parseExtensions(symbol))

	names := make([]string, 0, len(intervals))
	for _, interval := range intervals {
		names = append(names, spellInterval(rootPitch, interval))
	}

	if len(names) > 0 {
		for i := 0; i < inversion%len(names); i++ {
			names = append(names[1:], names[0])
		}
	}

	return addChordOctave(names, octave), nil
}

// addChordOctave numbers an ascending run of note names starting at octave.
// A note at or below the previous one in C..B order starts a new octave.
func addChordOctave(names []string, octave int) []string {
	out := make([]string, 0, len(names))
	prev := 0
	for _, name := range names {
		p, ok := turtle.ParsePitch(name)
		if !ok {
			continue
		}
		if prev != 0 && p.Position() <= prev {
			octave++
		}
		prev = p.Position()
		out = append(out, fmt.Sprintf("%s%d", name, octave))
	}
	return out
}

// ChordCells lays chord notes out for insertion into a sheet. Vertical
// layouts are one note per row with the highest pitch on top; horizontal
// layouts are a single row.
func ChordCells(notes []string, vertical bool) [][]string {
	if !vertical {
		return [][]string{append([]string(nil), notes...)}
	}
	rows := make([][]string, 0, len(notes))
	for i := len(notes) - 1; i >= 0; i-- {
		rows = append(rows, []string{notes[i]})
	}
	return rows
}

// ArpeggioCells orders chord notes for a turtle to walk: "up", "down", or
// "updown" (without repeating the top note).
func ArpeggioCells(notes []string, direction string) ([]string, error) {
	switch direction {
	case "", "up":
		return append([]string(nil), notes...), nil
	case "down":
		return reverseStrings(notes), nil
	case "updown":
		if len(notes) < 2 {
			return append([]string(nil), notes...), nil
		}
		return append(append([]string(nil), notes...), reverseStrings(notes[:len(notes)-1])...), nil
	default:
		return nil, fmt.Errorf("unknown arpeggio direction: %s", direction)
	}
}

// Helper functions

func splitBass(chordSymbol string) (string, string) {
	if base, bass, ok := strings.Cut(chordSymbol, "/"); ok {
		return strings.TrimSpace(base), strings.TrimSpace(bass)
	}
	return chordSymbol, ""
}

func parseRootNote(chordSymbol string) (string, error) {
	if len(chordSymbol) == 0 {
		return "", fmt.Errorf("empty chord symbol")
	}

	// Extract root (first 1-2 chars: C, C#, Db, etc.)
	root := chordSymbol[:1]
	if len(chordSymbol) > 1 && (chordSymbol[1] == '#' || chordSymbol[1] == 'b') {
		root = chordSymbol[:2]
	}

	if _, ok := noteOffsets[root]; !ok {
		return "", fmt.Errorf("invalid root note: %s", root)
	}

	return root, nil
}

func stripRoot(chordSymbol string) string {
	if len(chordSymbol) > 1 && (chordSymbol[1] == '#' || chordSymbol[1] == 'b') {
		return chordSymbol[2:]
	}
	if len(chordSymbol) > 0 {
		return chordSymbol[1:]
	}
	return chordSymbol
}

func parseChordQuality(chordSymbol string) string {
	rest := stripRoot(chordSymbol)

	switch {
	case strings.HasPrefix(rest, "min"):
		return "minor"
	case strings.HasPrefix(rest, "m") && !strings.HasPrefix(rest, "maj"):
		return "minor"
	case strings.HasPrefix(rest, "dim"):
		return "diminished"
	case strings.HasPrefix(rest, "aug"):
		return "augmented"
	case strings.HasPrefix(rest, "sus2"):
		return "sus2"
	case strings.HasPrefix(rest, "sus4"):
		return "sus4"
	}

	return "major"
}

func parseExtensions(chordSymbol string) []string {
	extensions := []string{}
	rest := stripRoot(chordSymbol)

	// Remove quality markers
	for _, prefix := range []string{"min", "dim", "aug", "sus2", "sus4"} {
		rest = strings.TrimPrefix(rest, prefix)
	}
	if !strings.HasPrefix(rest, "maj") {
		rest = strings.TrimPrefix(rest, "m")
	}

	// add9/add11/add13 go first so the bare 9/11/13 checks don't see them twice
	for _, add := range []string{"add9", "add11", "add13"} {
		if strings.Contains(rest, add) {
			extensions = append(extensions, add)
			rest = strings.ReplaceAll(rest, add, "")
		}
	}

	if strings.Contains(rest, "maj7") {
		extensions = append(extensions, "maj7")
		rest = strings.ReplaceAll(rest, "maj7", "")
	}
	if strings.Contains(rest, "7") {
		extensions = append(extensions, "7")
		rest = strings.ReplaceAll(rest, "7", "")
	}
	for _, ext := range []string{"9", "11", "13"} {
		if strings.Contains(rest, ext) {
			extensions = append(extensions, ext)
		}
	}

	return extensions
}

func buildChordIntervals(quality string, extensions []string) []int {
	var intervals []int

	// Base triad
	switch quality {
	case "minor":
		intervals = []int{0, 3, 7} // Root, Minor 3rd, Perfect 5th
	case "diminished":
		intervals = []int{0, 3, 6} // Root, Minor 3rd, Diminished 5th
	case "augmented":
		intervals = []int{0, 4, 8} // Root, Major 3rd, Augmented 5th
	case "sus2":
		intervals = []int{0, 2, 7} // Root, Major 2nd, Perfect 5th
	case "sus4":
		intervals = []int{0, 5, 7} // Root, Perfect 4th, Perfect 5th
	default:
		intervals = []int{0, 4, 7} // Root, Major 3rd, Perfect 5th
	}

	for _, ext := range extensions {
		switch ext {
		case "7":
			intervals = append(intervals, 10) // Minor 7th
		case "maj7":
			intervals = append(intervals, 11) // Major 7th
		case "9", "add9":
			intervals = append(intervals, 14) // Major 9th
		case "11", "add11":
			intervals = append(intervals, 17) // Perfect 11th
		case "13", "add13":
			intervals = append(intervals, 21) // Major 13th
		}
	}

	return intervals
}

var noteOffsets = map[string]int{
	"C":  0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E":  4,
	"F":  5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B":  11,
}

func noteToMIDI(note string, octave int) int {
	offset, ok := noteOffsets[note]
	if !ok {
		return 60 // Default to C4
	}
	return (octave+1)*12 + offset
}

// intervalDegrees maps a chord interval in semitones to its scale degree
// counted from the root (0 = root, 2 = third, ...).
var intervalDegrees = map[int]int{
	0: 0, 2: 1, 3: 2, 4: 2, 5: 3, 6: 4, 7: 4, 8: 4,
	10: 6, 11: 6, 14: 1, 17: 3, 21: 5,
}

var letters = "CDEFGAB"

// spellInterval names the note interval semitones above root, choosing the
// letter from the chord degree so minor thirds come out flat (C Eb G)
// rather than sharp. Spellings a pitch cell cannot hold fall back to sharps.
func spellInterval(root turtle.Pitch, interval int) string {
	pc := (root.PitchClass() + interval) % 12
	degree, ok := intervalDegrees[interval]
	if !ok {
		return sharpNames[pc]
	}

	letter := letters[(strings.IndexByte(letters, root.Letter)+degree)%7]
	natural := noteOffsets[string(letter)]
	switch (pc - natural + 12) % 12 {
	case 0:
		return string(letter)
	case 1:
		if name := string(letter) + "#"; name != "E#" && name != "B#" {
			return name
		}
	case 11:
		if name := string(letter) + "b"; name != "Cb" && name != "Fb" {
			return name
		}
	}
	return sharpNames[pc]
}

var sharpNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MIDIToPitch names a MIDI note number with sharps, e.g. 61 -> "C#4".
func MIDIToPitch(n int) string {
	return fmt.Sprintf("%s%d", sharpNames[((n%12)+12)%12], n/12-1)
}

func reverseStrings(s []string) []string {
	result := make([]string, len(s))
	for i, v := range s {
		result[len(s)-1-i] = v
	}
	return result
}
