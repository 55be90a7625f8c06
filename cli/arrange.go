package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/arranger"
	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/Conceptual-Machines/magda-turtles-go/sheet"
	"github.com/spf13/cobra"
)

func newChordCmd(a *app) *cobra.Command {
	var (
		octave    int
		inversion int
		layout    string
		arpeggio  string
		into      string
		at        string
		midiOut   bool
	)

	cmd := &cobra.Command{
		Use:   "chord <root> [quality]",
		Short: "Spell a chord as pitch cells",
		Long: `Spell a chord with octave numbers, ready to paste into a sheet.
Quality follows chord symbol suffixes: m, dim, aug, sus2, sus4, 7, maj7, add9, ...`,
		Example: `  turtles chord C maj7 --octave 3
  turtles chord A m --inversion 1 --layout horizontal
  turtles chord G 7 --into song.csv --at B2
  turtles chord E m/G --midi`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality := ""
			if len(args) == 2 {
				quality = args[1]
			}

			if midiOut {
				numbers, err := arranger.ChordToMIDI(args[0]+quality, octave)
				if err != nil {
					return err
				}
				fields := make([]string, len(numbers))
				for i, n := range numbers {
					fields[i] = strconv.Itoa(n)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, " "))
				return nil
			}

			notes, err := arranger.ChordNotes(args[0], quality, octave, inversion)
			if err != nil {
				return err
			}
			if arpeggio != "" {
				if notes, err = arranger.ArpeggioCells(notes, arpeggio); err != nil {
					return err
				}
			}

			var block [][]string
			switch layout {
			case "vertical":
				block = arranger.ChordCells(notes, true)
			case "horizontal":
				block = arranger.ChordCells(notes, false)
			default:
				return fmt.Errorf("unknown layout %q (vertical or horizontal)", layout)
			}

			if into == "" {
				for _, row := range block {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(row, "\t"))
				}
				return nil
			}

			if at == "" {
				return fmt.Errorf("--at is required with --into")
			}
			corner, err := turtle.ParseAddress(at)
			if err != nil {
				return err
			}
			return updateSheet(into, func(s *sheet.Sheet) {
				s.SetBlock(corner, block)
			})
		},
	}

	cmd.Flags().IntVar(&octave, "octave", 4, "octave of the lowest note")
	cmd.Flags().IntVar(&inversion, "inversion", 0, "number of notes moved from the bottom to the top")
	cmd.Flags().StringVar(&layout, "layout", "vertical", "vertical (highest note on top) or horizontal")
	cmd.Flags().StringVar(&arpeggio, "arpeggio", "", "order the notes as an arpeggio: up, down or updown")
	cmd.Flags().StringVar(&into, "into", "", "write the chord into this sheet file")
	cmd.Flags().StringVar(&at, "at", "", "top-left cell for --into")
	cmd.Flags().BoolVar(&midiOut, "midi", false, "print MIDI note numbers instead of cells (slash chords allowed)")
	return cmd
}

func newTransposeCmd(a *app) *cobra.Command {
	var (
		rng string
		out string
	)

	cmd := &cobra.Command{
		Use:   "transpose <sheet> <semitones>",
		Short: "Transpose the pitches on a sheet",
		Long: `Shift every pitch cell, including the parts of multi-pitch cells, by a
number of semitones. Volumes, sustains and other cells are left alone.`,
		Example: `  turtles transpose song.csv 2 --out song-up.csv
  turtles transpose song.csv -- -12 --range B2:H5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			semitones, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid semitones %q: %w", args[1], err)
			}

			s, err := sheet.Load(args[0])
			if err != nil {
				return err
			}

			if rng == "" {
				name := s.Name
				s = sheet.New(arranger.TransposeRows(s.Rows(), semitones))
				s.Name = name
			} else {
				cells, err := rangeCells(rng)
				if err != nil {
					return err
				}
				for _, c := range cells {
					s.Set(c, arranger.Transpose(s.Cell(c.Row, c.Col), semitones))
				}
			}

			if out == "" {
				return s.WriteCSV(cmd.OutOrStdout())
			}
			return s.Save(out)
		},
	}

	cmd.Flags().StringVar(&rng, "range", "", "only transpose cells in this range, e.g. B2:H5")
	cmd.Flags().StringVar(&out, "out", "", "write the result to this file instead of stdout")
	return cmd
}

func rangeCells(rng string) ([]models.Coordinate, error) {
	addresses, err := turtle.ExpandRange(rng)
	if err != nil {
		return nil, err
	}
	cells := make([]models.Coordinate, 0, len(addresses))
	for _, address := range addresses {
		c, err := turtle.ParseAddress(address)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// updateSheet loads a sheet (or starts an empty one if the file does not
// exist yet), applies fn and saves it back.
func updateSheet(path string, fn func(*sheet.Sheet)) error {
	s, err := sheet.Load(path)
	if err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return err
		}
		s = sheet.New(nil)
	}
	fn(s)
	return s.Save(path)
}
