package turtle

import (
	"fmt"
	"log"
	"regexp"
	"strconv"

	"github.com/Conceptual-Machines/magda-turtles-go/models"
)

// Grid is read access to a sheet. Cell returns "" for empty cells; callers
// never ask a Grid for positions outside Bounds.
type Grid interface {
	Cell(row, col int) string
	Bounds() (rows, cols int)
}

// WalkResult is everything a single turtle collected on its walk.
type WalkResult struct {
	Values      []models.CellValue  `json:"values"`
	Trace       []models.Coordinate `json:"trace"`
	Diagnostics []string            `json:"diagnostics,omitempty"`
}

var relativeJumpRe = regexp.MustCompile(`^([+-][0-9]+)([+-][0-9]+)$`)

// walker is the state of one turtle. It is created per walk and discarded.
type walker struct {
	grid   Grid
	rows   int
	cols   int
	pos    models.Coordinate
	facing models.Direction
	volume float64
	result WalkResult
}

// Walk runs movement tokens from start over grid with the default dynamic.
func Walk(start models.Coordinate, moves []string, grid Grid) WalkResult {
	return DefaultPipeline().Walk(start, moves, grid)
}

// Walk runs movement tokens from start over grid. The turtle begins facing
// north and records the start cell before the first token.
func (p Pipeline) Walk(start models.Coordinate, moves []string, grid Grid) WalkResult {
	rows, cols := grid.Bounds()
	w := &walker{
		grid:   grid,
		rows:   rows,
		cols:   cols,
		pos:    start,
		facing: models.North,
		volume: p.Volume,
	}
	w.visit()

	for _, token := range moves {
		w.apply(token)
	}
	return w.result
}

// ReadCell reads a cell, treating anything outside the grid as empty.
func ReadCell(grid Grid, c models.Coordinate) string {
	rows, cols := grid.Bounds()
	if c.Row < 0 || c.Col < 0 || c.Row >= rows || c.Col >= cols {
		return ""
	}
	return grid.Cell(c.Row, c.Col)
}

func (w *walker) apply(token string) {
	switch {
	case token == "":
		return
	case IsDirChange(token):
		w.turn(token)
	case token[0] == 'j' || token[0] == 'J':
		w.jump(token[1:])
	case IsDynamic(token):
		w.volume, _ = DynamicVolume(token)
		w.diagnose("dynamic %q in instructions is deprecated, put dynamics in cells", token)
	case token[0] == 'm':
		w.move(token[1:])
	default:
		w.diagnose("ignoring unrecognized instruction %q", token)
	}
}

func (w *walker) turn(token string) {
	switch token {
	case "n":
		w.facing = models.North
		return
	case "e":
		w.facing = models.East
		return
	case "s":
		w.facing = models.South
		return
	case "w":
		w.facing = models.West
		return
	}

	times := 1
	if len(token) > 1 {
		n, err := strconv.Atoi(token[1:])
		if err != nil {
			w.diagnose("ignoring unrecognized instruction %q", token)
			return
		}
		times = n
	}
	for i := 0; i < times%4; i++ {
		if token[0] == 'r' {
			w.facing = w.facing.Clockwise()
		} else {
			w.facing = w.facing.CounterClockwise()
		}
	}
}

func (w *walker) jump(target string) {
	if IsCell(target) {
		c, err := ParseAddress(target)
		if err != nil {
			w.diagnose("ignoring jump to %q: %v", target, err)
			return
		}
		w.pos = c
		w.visit()
		return
	}

	offsets := relativeJumpRe.FindStringSubmatch(target)
	if offsets == nil {
		w.diagnose("ignoring malformed jump %q", "j"+target)
		return
	}
	// Offsets are written column first, the way cells are named.
	dCol, errCol := strconv.Atoi(offsets[1])
	dRow, errRow := strconv.Atoi(offsets[2])
	if errCol != nil || errRow != nil {
		w.diagnose("ignoring malformed jump %q", "j"+target)
		return
	}
	w.pos = models.Coordinate{
		Row: max(w.pos.Row+dRow, 0),
		Col: max(w.pos.Col+dCol, 0),
	}
	w.visit()
}

func (w *walker) move(count string) {
	var steps int
	switch count {
	case "":
		steps = 1
	case "*":
		steps = w.stepsToEndOfData()
	default:
		n, err := strconv.Atoi(count)
		if err != nil || n < 0 {
			w.diagnose("ignoring unrecognized instruction %q", "m"+count)
			return
		}
		steps = n
	}

	for i := 0; i < steps; i++ {
		w.pos = w.step(w.pos)
		w.visit()
	}
}

// step moves one cell forward. North and west stop at the first row and
// column; south and east run on past the grid.
func (w *walker) step(c models.Coordinate) models.Coordinate {
	switch w.facing {
	case models.North:
		c.Row = max(c.Row-1, 0)
	case models.East:
		c.Col++
	case models.South:
		c.Row++
	case models.West:
		c.Col = max(c.Col-1, 0)
	}
	return c
}

// stepsToEndOfData looks ahead from the current cell to the edge of the grid
// and returns the distance to the farthest data cell, or 0 if there is none.
// Gaps inside the data are walked over; empty cells after it are not.
func (w *walker) stepsToEndOfData() int {
	steps := 0
	for i := 1; ; i++ {
		next := w.pos
		switch w.facing {
		case models.North:
			next.Row -= i
			if next.Row < 0 {
				return steps
			}
		case models.South:
			next.Row += i
			if next.Row >= w.rows {
				return steps
			}
		case models.West:
			next.Col -= i
			if next.Col < 0 {
				return steps
			}
		case models.East:
			next.Col += i
			if next.Col >= w.cols {
				return steps
			}
		}
		if IsData(ReadCell(w.grid, next)) {
			steps = i
		}
	}
}

func (w *walker) visit() {
	w.result.Values = append(w.result.Values, models.CellValue{
		Value:  ReadCell(w.grid, w.pos),
		Volume: w.volume,
	})
	w.result.Trace = append(w.result.Trace, w.pos)
}

func (w *walker) diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("⚠️  Turtle: %s", msg)
	w.result.Diagnostics = append(w.result.Diagnostics, msg)
}
