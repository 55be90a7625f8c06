package cli

import (
	"fmt"
	"os"

	"github.com/Conceptual-Machines/magda-turtles-go/midifile"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var resolution int

	cmd := &cobra.Command{
		Use:   "import <in.mid> <out.csv|out.yaml>",
		Short: "Convert a MIDI file into a sheet of turtle rows",
		Long: `Split each MIDI track into monophonic streams, quantise them to
--resolution cells per beat and write one row per stream, with a turtle in
A1 that plays every row once at the file's tempo.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			s, err := midifile.Import(f, midifile.ImportOptions{
				Resolution:     resolution,
				ReferenceTempo: a.cfg.Tempo.Reference,
			})
			if err != nil {
				return err
			}
			if err := s.Save(args[1]); err != nil {
				return err
			}

			rows, cols := s.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d turtles × %d cells to %s\n", rows-1, cols, args[1])
			return nil
		},
	}

	cmd.Flags().IntVar(&resolution, "resolution", midifile.DefaultImportOptions().Resolution, "cells per beat")
	return cmd
}
