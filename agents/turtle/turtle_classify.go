package turtle

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	pitchRe     = regexp.MustCompile(`^[A-G](#|b)?[0-9]?( (0(\.[0-9]+)?|1(\.0+)?|ppp|pp|p|mp|mf|f|ff|fff))?$`)
	cellRe      = regexp.MustCompile(`^\s*[a-zA-Z]+[0-9]+\s*$`)
	dirChangeRe = regexp.MustCompile(`^([rl][0-9]*|n|e|s|w)$`)
	dynamicRe   = regexp.MustCompile(`^(ppp|pp|p|mp|mf|f|ff|fff)$`)
	turtleRe    = regexp.MustCompile(`^!turtle\(.*\)$`)
)

// dynamicVolumes maps the eight dynamic markings to a volume in [0,1].
var dynamicVolumes = map[string]float64{
	"ppp": 0.125,
	"pp":  0.25,
	"p":   0.375,
	"mp":  0.5,
	"mf":  0.625,
	"f":   0.75,
	"ff":  0.875,
	"fff": 1,
}

// DefaultDynamic is the dynamic a turtle starts with.
const DefaultDynamic = "mf"

// IsPitch reports whether a cell holds a single pitch, e.g. "A4", "Ab",
// "Ab5 ppp" or "A 0.5".
func IsPitch(s string) bool {
	return pitchRe.MatchString(s)
}

// IsMultiPitch reports whether a cell holds a comma separated subdivision of
// pitches, rests and sustains with at least one pitch, e.g. " ,C3,D3,s".
func IsMultiPitch(s string) bool {
	if !strings.Contains(s, ",") {
		return false
	}
	hasPitch := false
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch {
		case IsPitch(part):
			hasPitch = true
		case part == "", IsSustain(part):
		default:
			return false
		}
	}
	return hasPitch
}

// IsSustain reports whether a cell continues the previous note.
func IsSustain(s string) bool {
	return s == "s" || s == "-" || s == "."
}

// IsData reports whether a cell carries musical content a turtle should
// walk up to: a pitch, a multi-pitch or a sustain.
func IsData(s string) bool {
	return IsPitch(s) || IsMultiPitch(s) || IsSustain(s)
}

// IsCell reports whether s is a spreadsheet address such as "AA14".
func IsCell(s string) bool {
	return cellRe.MatchString(s)
}

// IsDirChange reports whether s turns the turtle: r/l with an optional
// count, or an absolute compass letter.
func IsDirChange(s string) bool {
	return dirChangeRe.MatchString(s)
}

// IsDynamic reports whether s is one of ppp..fff, ignoring case.
func IsDynamic(s string) bool {
	return dynamicRe.MatchString(strings.ToLower(s))
}

// IsTurtle reports whether a cell declares a turtle: "!turtle(...)".
func IsTurtle(s string) bool {
	return turtleRe.MatchString(s)
}

// DynamicVolume converts a dynamic marking to its volume. Unknown markings
// report false.
func DynamicVolume(dynamic string) (float64, bool) {
	v, ok := dynamicVolumes[strings.ToLower(dynamic)]
	return v, ok
}

// Pitch is a parsed pitch cell.
type Pitch struct {
	Letter     byte
	Accidental string
	Octave     int
	HasOctave  bool
	Volume     float64
	HasVolume  bool
}

// letterSemitones is the semitone offset of each natural from C.
var letterSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParsePitch parses a pitch cell. It reports false for anything IsPitch
// rejects.
func ParsePitch(s string) (Pitch, bool) {
	if !IsPitch(s) {
		return Pitch{}, false
	}

	note, volume, hasVolume := strings.Cut(s, " ")
	p := Pitch{Letter: note[0]}
	rest := note[1:]
	if strings.HasPrefix(rest, "#") || strings.HasPrefix(rest, "b") {
		p.Accidental = rest[:1]
		rest = rest[1:]
	}
	if rest != "" {
		p.Octave = int(rest[0] - '0')
		p.HasOctave = true
	}

	if hasVolume {
		if v, ok := DynamicVolume(volume); ok {
			p.Volume = v
		} else if f, err := strconv.ParseFloat(volume, 64); err == nil {
			p.Volume = f
		}
		p.HasVolume = true
	}
	return p, true
}

// PitchClass is the semitone of the pitch within its octave, 0 (C) to 11 (B),
// with sharps and flats folded onto their enharmonic equivalents.
func (p Pitch) PitchClass() int {
	semitone := letterSemitones[p.Letter]
	switch p.Accidental {
	case "#":
		semitone++
	case "b":
		semitone--
	}
	return (semitone + 12) % 12
}

// Position is the pitch's place in the chromatic ordering C=1 .. B=12.
func (p Pitch) Position() int {
	return p.PitchClass() + 1
}

// Name renders the pitch without volume, e.g. "C#4".
func (p Pitch) Name() string {
	name := string(p.Letter) + p.Accidental
	if p.HasOctave {
		name += strconv.Itoa(p.Octave)
	}
	return name
}

// MIDI returns the MIDI note number with C4 = 60. Octave-less pitches are
// placed in octave 4.
func (p Pitch) MIDI() int {
	octave := p.Octave
	if !p.HasOctave {
		octave = 4
	}
	return (octave+1)*12 + letterSemitones[p.Letter] + accidentalOffset(p.Accidental)
}

func accidentalOffset(acc string) int {
	switch acc {
	case "#":
		return 1
	case "b":
		return -1
	}
	return 0
}
