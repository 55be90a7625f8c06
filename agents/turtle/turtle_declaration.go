package turtle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/models"
)

var (
	// ErrNotTurtle is returned for cells that do not hold "!turtle(...)".
	ErrNotTurtle = errors.New("not a turtle declaration")
	// ErrEmptyInstructions is returned for declarations without moves.
	ErrEmptyInstructions = errors.New("turtle declaration has no instructions")
)

// DefaultReferenceTempo is the BPM of speed 1.
const DefaultReferenceTempo = 160

// Declaration is a parsed "!turtle(start, moves[, speed[, repeats]])" cell.
type Declaration struct {
	Start       string
	Moves       string
	Speed       float64
	Repeats     int
	Diagnostics []string
}

// ParseDeclaration reads a turtle cell. Speeds above 10 are absolute tempos
// and are divided by referenceTempo. Unreadable speed or repeat fields fall
// back to 1 and 0 with a diagnostic rather than failing.
func ParseDeclaration(value string, referenceTempo float64) (Declaration, error) {
	if !IsTurtle(value) {
		return Declaration{}, fmt.Errorf("%w: %q", ErrNotTurtle, value)
	}
	if referenceTempo <= 0 {
		referenceTempo = DefaultReferenceTempo
	}

	body := value[len("!turtle(") : len(value)-1]
	fields := strings.Split(body, ",")

	d := Declaration{
		Start: strings.TrimSpace(fields[0]),
		Speed: 1,
	}
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return Declaration{}, fmt.Errorf("%w: %q", ErrEmptyInstructions, value)
	}
	d.Moves = strings.TrimSpace(fields[1])

	if len(fields) > 2 {
		speed, err := parseSpeed(fields[2])
		switch {
		case err != nil:
			d.Diagnostics = append(d.Diagnostics, fmt.Sprintf("ignoring speed %q: %v", strings.TrimSpace(fields[2]), err))
		case speed > 10:
			d.Speed = speed / referenceTempo
		default:
			d.Speed = speed
		}
	}

	if len(fields) > 3 {
		raw := strings.ReplaceAll(fields[3], " ", "")
		repeats, err := strconv.Atoi(raw)
		if err != nil || repeats < 0 {
			d.Diagnostics = append(d.Diagnostics, fmt.Sprintf("ignoring repeats %q, looping indefinitely", raw))
		} else {
			d.Repeats = repeats
		}
	}

	return d, nil
}

// parseSpeed accepts a decimal or a simple fraction such as "1/2".
func parseSpeed(raw string) (float64, error) {
	raw = strings.ReplaceAll(raw, " ", "")
	var speed float64
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, errors.New("division by zero")
		}
		speed = n / d
	} else {
		s, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, err
		}
		speed = s
	}
	if speed <= 0 {
		return 0, errors.New("speed must be positive")
	}
	return speed, nil
}

// Starts lists the cells a turtle starts from: one for a plain address, every
// cell of the range for "A1:B4".
func (d Declaration) Starts() ([]string, error) {
	if IsRange(d.Start) {
		return ExpandRange(d.Start)
	}
	if !IsCell(d.Start) {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidAddress, d.Start)
	}
	return []string{strings.TrimSpace(d.Start)}, nil
}

// IsSpan reports whether the declaration uses the older "!turtle(A1, B4)"
// form, which plays the rectangle between the two cells instead of walking.
func (d Declaration) IsSpan() bool {
	return IsCell(d.Start) && IsCell(d.Moves)
}

// StopBeats is how long playback lasts at the turtle's speed. It reports
// false for turtles that loop forever.
func (d Declaration) StopBeats(loop models.Beat) (float64, bool) {
	if d.Repeats <= 0 {
		return 0, false
	}
	speed := d.Speed
	if speed <= 0 {
		speed = 1
	}
	return float64(d.Repeats) * loop.Float64() / speed, true
}

// String renders the declaration back into cell form.
func (d Declaration) String() string {
	parts := []string{d.Start, d.Moves}
	if d.Speed != 1 || d.Repeats != 0 {
		parts = append(parts, strconv.FormatFloat(d.Speed, 'g', -1, 64))
	}
	if d.Repeats != 0 {
		parts = append(parts, strconv.Itoa(d.Repeats))
	}
	return "!turtle(" + strings.Join(parts, ", ") + ")"
}
