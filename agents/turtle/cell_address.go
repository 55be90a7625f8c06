package turtle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/models"
)

// ErrInvalidAddress is returned for text that is not a cell address or range.
var ErrInvalidAddress = errors.New("invalid cell address")

const (
	// MaxColumnLetters bounds column names; "ZZZZZZZ" is column 8353082581.
	MaxColumnLetters = 7
	// MaxRangeCells bounds how many cells ExpandRange will list.
	MaxRangeCells = 1 << 16
)

// ColumnLetters gives the spreadsheet heading of a zero-indexed column,
// e.g. 0 -> "A", 26 -> "AA".
func ColumnLetters(col int) string {
	if col < 0 {
		return ""
	}
	var sb []byte
	for col >= 0 {
		sb = append([]byte{byte('A' + col%26)}, sb...)
		col = col/26 - 1
	}
	return string(sb)
}

// ColumnIndex is the inverse of ColumnLetters. Letters are case-insensitive.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidAddress)
	}
	if len(letters) > MaxColumnLetters {
		return 0, fmt.Errorf("%w: column %q longer than %d letters", ErrInvalidAddress, letters, MaxColumnLetters)
	}
	n := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidAddress, letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// ParseAddress converts "B4" into Coordinate{Row: 3, Col: 1}.
func ParseAddress(address string) (models.Coordinate, error) {
	address = strings.TrimSpace(address)
	if !IsCell(address) {
		return models.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	split := strings.IndexAny(address, "0123456789")
	col, err := ColumnIndex(address[:split])
	if err != nil {
		return models.Coordinate{}, err
	}
	row, err := strconv.Atoi(address[split:])
	if err != nil || row < 1 {
		return models.Coordinate{}, fmt.Errorf("%w: row in %q", ErrInvalidAddress, address)
	}
	return models.Coordinate{Row: row - 1, Col: col}, nil
}

// FormatAddress converts a coordinate back into "B4" form.
func FormatAddress(c models.Coordinate) string {
	return ColumnLetters(c.Col) + strconv.Itoa(c.Row+1)
}

// IsRange reports whether s looks like "A1:B4".
func IsRange(s string) bool {
	from, to, ok := strings.Cut(s, ":")
	return ok && IsCell(from) && IsCell(to)
}

// ExpandRange lists every address in a rectangular range, row by row. The
// corners may be given in any order. Ranges over MaxRangeCells are rejected.
func ExpandRange(rng string) ([]string, error) {
	from, to, ok := strings.Cut(strings.ReplaceAll(rng, " ", ""), ":")
	if !ok {
		return nil, fmt.Errorf("%w: range %q", ErrInvalidAddress, rng)
	}
	start, err := ParseAddress(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseAddress(to)
	if err != nil {
		return nil, err
	}

	top, bottom := min(start.Row, end.Row), max(start.Row, end.Row)
	left, right := min(start.Col, end.Col), max(start.Col, end.Col)

	width, height := right-left+1, bottom-top+1
	if width > MaxRangeCells || height > MaxRangeCells/width {
		return nil, fmt.Errorf("%w: range %q has more than %d cells", ErrInvalidAddress, rng, MaxRangeCells)
	}

	cells := make([]string, 0, width*height)
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			cells = append(cells, FormatAddress(models.Coordinate{Row: row, Col: col}))
		}
	}
	return cells, nil
}
