package turtle

import (
	"fmt"
	"log"

	"github.com/Conceptual-Machines/magda-turtles-go/models"
)

// Pipeline holds the settings shared by the walk and compile stages.
type Pipeline struct {
	// Volume is where the running volume starts, normally mf.
	Volume float64
}

// DefaultPipeline starts turtles at DefaultDynamic.
func DefaultPipeline() Pipeline {
	volume, _ := DynamicVolume(DefaultDynamic)
	return Pipeline{Volume: volume}
}

// NewPipeline starts turtles at the given dynamic marking.
func NewPipeline(dynamic string) (Pipeline, error) {
	volume, ok := DynamicVolume(dynamic)
	if !ok {
		return Pipeline{}, fmt.Errorf("unknown dynamic %q", dynamic)
	}
	return Pipeline{Volume: volume}, nil
}

// Run is one turtle's full parse, walk and compile.
type Run struct {
	Start        string          `json:"start"`
	Instructions []string        `json:"instructions"`
	Walk         WalkResult      `json:"walk"`
	Timeline     models.Timeline `json:"timeline"`
}

// Run parses instructions and walks them from the start address.
func (p Pipeline) Run(start, instructions string, grid Grid) (Run, error) {
	origin, err := ParseAddress(start)
	if err != nil {
		return Run{}, err
	}

	moves, truncated := ExpandLimited(ParseBrackets(instructions), MaxExpandedTokens)
	walk := p.Walk(origin, moves, grid)
	if truncated {
		msg := fmt.Sprintf("instructions expand past %d tokens, the rest are dropped", MaxExpandedTokens)
		log.Printf("⚠️  Turtle: %s", msg)
		walk.Diagnostics = append([]string{msg}, walk.Diagnostics...)
	}
	return Run{
		Start:        FormatAddress(origin),
		Instructions: moves,
		Walk:         walk,
		Timeline:     p.Compile(walk.Values),
	}, nil
}

// Span plays every cell of the rectangle between two addresses, row by row.
func (p Pipeline) Span(from, to string, grid Grid) (Run, error) {
	cells, err := ExpandRange(from + ":" + to)
	if err != nil {
		return Run{}, err
	}

	walk := WalkResult{
		Values: make([]models.CellValue, 0, len(cells)),
		Trace:  make([]models.Coordinate, 0, len(cells)),
	}
	for _, cell := range cells {
		c, _ := ParseAddress(cell)
		walk.Values = append(walk.Values, models.CellValue{Value: ReadCell(grid, c), Volume: p.Volume})
		walk.Trace = append(walk.Trace, c)
	}

	return Run{
		Start:    cells[0],
		Walk:     walk,
		Timeline: p.Compile(walk.Values),
	}, nil
}
