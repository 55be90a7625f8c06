package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheet_CellAndBounds(t *testing.T) {
	s := New([][]string{
		{"C4", "D4"},
		{"E4"},
		{"", "", "G4"},
	})

	rows, cols := s.Bounds()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)

	tests := []struct {
		name     string
		row, col int
		expected string
	}{
		{"first cell", 0, 0, "C4"},
		{"ragged row reads empty", 1, 2, ""},
		{"last cell", 2, 2, "G4"},
		{"below sheet", 5, 0, ""},
		{"negative", -1, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Cell(tt.row, tt.col))
		})
	}
}

func TestSheet_NewCopiesRows(t *testing.T) {
	rows := [][]string{{"C4"}}
	s := New(rows)
	rows[0][0] = "D4"
	assert.Equal(t, "C4", s.Cell(0, 0))
}

func TestSheet_SetGrows(t *testing.T) {
	s := New(nil)
	s.Set(models.Coordinate{Row: 2, Col: 1}, "A4")

	rows, cols := s.Bounds()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, "A4", s.Cell(2, 1))
	assert.Equal(t, [][]string{{"", ""}, {"", ""}, {"", "A4"}}, s.Rows())
}

func TestSheet_SetBlock(t *testing.T) {
	s := New(nil)
	s.SetBlock(models.Coordinate{Row: 1, Col: 1}, [][]string{{"G4"}, {"E4"}, {"C4"}})

	assert.Equal(t, "G4", s.Cell(1, 1))
	assert.Equal(t, "C4", s.Cell(3, 1))
}

func TestLoadCSV(t *testing.T) {
	input := "\"!turtle(A2, r m3)\"\nC4,D4,E4,F4\n,\"C4,D4\",-\n"

	s, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "!turtle(A2, r m3)", s.Cell(0, 0))
	assert.Equal(t, "F4", s.Cell(1, 3))
	assert.Equal(t, "C4,D4", s.Cell(2, 1))
	assert.Equal(t, "-", s.Cell(2, 2))
}

func TestLoadYAML(t *testing.T) {
	input := `name: melody
rows:
  - ["!turtle(A2, r m2, 1/2, 2)"]
  - [C4, "E4 pp", 0.5]
  - [null, "-", 3]
`
	s, err := LoadYAML(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "melody", s.Name)
	assert.Equal(t, "!turtle(A2, r m2, 1/2, 2)", s.Cell(0, 0))
	assert.Equal(t, "E4 pp", s.Cell(1, 1))
	assert.Equal(t, "0.5", s.Cell(1, 2))
	assert.Equal(t, "", s.Cell(2, 0))
	assert.Equal(t, "3", s.Cell(2, 2))
}

func TestLoadYAML_Empty(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	rows, cols := s.Bounds()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv by extension", func(t *testing.T) {
		path := filepath.Join(dir, "tune.csv")
		require.NoError(t, os.WriteFile(path, []byte("C4,D4\n"), 0o644))

		s, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "tune", s.Name)
		assert.Equal(t, "D4", s.Cell(0, 1))
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := filepath.Join(dir, "tune.xlsx")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.csv"))
		assert.Error(t, err)
	})
}

func TestSheet_SaveAndLoad(t *testing.T) {
	original := New([][]string{
		{"!turtle(A2, r m1)"},
		{"C4 ff", "-"},
	})

	for _, ext := range []string{".csv", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sheet"+ext)
			require.NoError(t, original.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, original.Rows(), loaded.Rows())
		})
	}
}

func TestSheet_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New([][]string{{"C4", "D4"}, {"E4"}}).WriteCSV(&buf))
	assert.Equal(t, "C4,D4\nE4,\n", buf.String())
}
