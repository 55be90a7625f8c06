// Package render draws sheets in the terminal with cells coloured by kind
// and the path of a turtle marked.
package render

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/charmbracelet/lipgloss"
)

// Kind is how a cell is highlighted.
type Kind int

const (
	Plain Kind = iota
	Note
	Sustain
	Turtle
)

// Cell colours, matching the spreadsheet add-in palette.
var (
	NoteColor    = lipgloss.Color("#FFADA5")
	SustainColor = lipgloss.Color("#FFD6D6")
	TurtleColor  = lipgloss.Color("#A8FFD0")
)

// TraceMark prefixes cells a turtle visited.
const TraceMark = "›"

var (
	plainStyle   = lipgloss.NewStyle()
	noteStyle    = lipgloss.NewStyle().Background(NoteColor).Foreground(lipgloss.Color("#000000"))
	sustainStyle = lipgloss.NewStyle().Background(SustainColor).Foreground(lipgloss.Color("#000000"))
	turtleStyle  = lipgloss.NewStyle().Background(TurtleColor).Foreground(lipgloss.Color("#000000")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Faint(true)
)

// Classify decides how a cell value is highlighted.
func Classify(value string) Kind {
	switch {
	case turtle.IsTurtle(value):
		return Turtle
	case turtle.IsPitch(value), turtle.IsMultiPitch(value):
		return Note
	case turtle.IsSustain(value):
		return Sustain
	}
	return Plain
}

func (k Kind) style() lipgloss.Style {
	switch k {
	case Note:
		return noteStyle
	case Sustain:
		return sustainStyle
	case Turtle:
		return turtleStyle
	}
	return plainStyle
}

func (k Kind) String() string {
	switch k {
	case Note:
		return "note"
	case Sustain:
		return "sustain"
	case Turtle:
		return "turtle"
	}
	return "plain"
}

// Highlight renders the grid as a table with spreadsheet headings. Cells on
// the trace are marked with TraceMark; pass nil to draw the sheet alone.
func Highlight(grid turtle.Grid, trace []models.Coordinate) string {
	rows, cols := grid.Bounds()

	visited := make(map[models.Coordinate]bool, len(trace))
	for _, c := range trace {
		visited[c] = true
	}

	// The trace may run past the sheet to the south and east.
	for c := range visited {
		rows = max(rows, c.Row+1)
		cols = max(cols, c.Col+1)
	}

	widths := make([]int, cols)
	for col := range widths {
		widths[col] = lipgloss.Width(turtle.ColumnLetters(col))
		for row := 0; row < rows; row++ {
			widths[col] = max(widths[col], lipgloss.Width(cellText(grid, row, col, visited)))
		}
	}
	gutter := len(strconv.Itoa(rows))

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", gutter))
	for col, w := range widths {
		sb.WriteString(" ")
		sb.WriteString(headerStyle.Render(pad(turtle.ColumnLetters(col), w)))
	}
	sb.WriteString("\n")

	for row := 0; row < rows; row++ {
		sb.WriteString(headerStyle.Render(pad(strconv.Itoa(row+1), gutter)))
		for col, w := range widths {
			value := turtle.ReadCell(grid, models.Coordinate{Row: row, Col: col})
			sb.WriteString(" ")
			sb.WriteString(Classify(value).style().Render(pad(cellText(grid, row, col, visited), w)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func cellText(grid turtle.Grid, row, col int, visited map[models.Coordinate]bool) string {
	c := models.Coordinate{Row: row, Col: col}
	text := turtle.ReadCell(grid, c)
	if visited[c] {
		return TraceMark + text
	}
	return text
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
