// Package sheet holds the grids turtles walk over and loads them from disk.
package sheet

import (
	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
)

// Sheet is an in-memory grid of cell text. Rows may be ragged; missing cells
// read as empty.
type Sheet struct {
	Name string
	rows [][]string
	cols int
}

var _ turtle.Grid = (*Sheet)(nil)

// New builds a sheet from rows of cell text. The rows are copied.
func New(rows [][]string) *Sheet {
	s := &Sheet{rows: make([][]string, len(rows))}
	for i, row := range rows {
		s.rows[i] = append([]string(nil), row...)
		s.cols = max(s.cols, len(row))
	}
	return s
}

// Cell returns the text at (row, col), or "" outside the sheet.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.rows) || col < 0 || col >= len(s.rows[row]) {
		return ""
	}
	return s.rows[row][col]
}

// Bounds returns the row count and the width of the widest row.
func (s *Sheet) Bounds() (rows, cols int) {
	return len(s.rows), s.cols
}

// Set writes a cell, growing the sheet as needed.
func (s *Sheet) Set(c models.Coordinate, value string) {
	if c.Row < 0 || c.Col < 0 {
		return
	}
	for len(s.rows) <= c.Row {
		s.rows = append(s.rows, nil)
	}
	row := s.rows[c.Row]
	for len(row) <= c.Col {
		row = append(row, "")
	}
	row[c.Col] = value
	s.rows[c.Row] = row
	s.cols = max(s.cols, len(row))
}

// SetBlock writes a block of cells with its top-left corner at c.
func (s *Sheet) SetBlock(c models.Coordinate, block [][]string) {
	for r, row := range block {
		for col, value := range row {
			s.Set(models.Coordinate{Row: c.Row + r, Col: c.Col + col}, value)
		}
	}
}

// Rows returns a rectangular copy of the sheet.
func (s *Sheet) Rows() [][]string {
	out := make([][]string, len(s.rows))
	for i := range s.rows {
		out[i] = make([]string, s.cols)
		copy(out[i], s.rows[i])
	}
	return out
}
