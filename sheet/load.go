package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of a sheet.
type File struct {
	Name string  `yaml:"name,omitempty"`
	Rows [][]any `yaml:"rows"`
}

// Load reads a sheet, choosing the format from the file extension
// (.csv, .yaml or .yml).
func Load(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer f.Close()

	var s *Sheet
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		s, err = LoadCSV(f)
	case ".yaml", ".yml":
		s, err = LoadYAML(f)
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// LoadCSV reads a sheet from comma separated values. Rows may have
// different lengths.
func LoadCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return New(rows), nil
}

// LoadYAML reads a sheet from YAML. Scalars of any type are kept as the
// text they would show in a spreadsheet, and nulls are empty cells.
func LoadYAML(r io.Reader) (*Sheet, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return New(nil), nil
		}
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	rows := make([][]string, len(file.Rows))
	for i, row := range file.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellText(cell)
		}
	}

	s := New(rows)
	s.Name = file.Name
	return s, nil
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// WriteCSV writes the sheet as rectangular CSV.
func (s *Sheet) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(s.Rows()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteYAML writes the sheet in the form LoadYAML reads.
func (s *Sheet) WriteYAML(w io.Writer) error {
	file := File{Name: s.Name}
	for _, row := range s.Rows() {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		file.Rows = append(file.Rows, cells)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	return enc.Close()
}

// Save writes the sheet to path in the format its extension names.
func (s *Sheet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		err = s.WriteCSV(f)
	case ".yaml", ".yml":
		err = s.WriteYAML(f)
	default:
		err = fmt.Errorf("unsupported sheet format %q", ext)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
