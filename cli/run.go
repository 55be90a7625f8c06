package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/midifile"
	"github.com/Conceptual-Machines/magda-turtles-go/sheet"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		asJSON  bool
		midiOut string
	)

	cmd := &cobra.Command{
		Use:   "run <sheet>",
		Short: "Run every turtle on a sheet",
		Long: `Find every !turtle(...) cell on the sheet, walk each turtle and print
the notes it plays. Turtles declared over a range run once per start cell.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sheet.Load(args[0])
			if err != nil {
				return err
			}

			results, err := a.runSheet(cmd.Context(), s)
			if err != nil {
				return err
			}

			if midiOut != "" {
				if err := a.writeMIDI(midiOut, results); err != nil {
					return err
				}
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&midiOut, "midi", "", "also write the results to this MIDI file")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <sheet>",
		Short: "Re-run every turtle whenever the sheet file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			return sheet.Watch(ctx, args[0], func(s *sheet.Sheet, err error) {
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return
				}
				results, err := a.runSheet(ctx, s)
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return
				}
				printResults(out, results)
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <sheet> <out.mid>",
		Short: "Run every turtle on a sheet and write a MIDI file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sheet.Load(args[0])
			if err != nil {
				return err
			}
			results, err := a.runSheet(cmd.Context(), s)
			if err != nil {
				return err
			}
			if err := a.writeMIDI(args[1], results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d tracks to %s\n", len(midifile.PartsFromResults(results)), args[1])
			return nil
		},
	}
}

func (a *app) runSheet(ctx context.Context, s *sheet.Sheet) ([]turtle.TurtleResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	agent, err := turtle.NewTurtleAgent(a.cfg)
	if err != nil {
		return nil, err
	}
	return agent.RunSheet(ctx, s)
}

func (a *app) writeMIDI(path string, results []turtle.TurtleResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	opts := midifile.ExportOptions{
		TicksPerBeat:     a.cfg.Export.TicksPerBeat,
		ReferenceTempo:   a.cfg.Tempo.Reference,
		ChannelPerTurtle: a.cfg.Export.ChannelPerTurtle,
	}
	if err := midifile.Export(f, midifile.PartsFromResults(results), opts); err != nil {
		return err
	}
	return f.Close()
}

func printResults(w io.Writer, results []turtle.TurtleResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no turtles found")
		return
	}

	for _, r := range results {
		origin := turtle.FormatAddress(r.Origin)
		if r.Err != nil {
			fmt.Fprintf(w, "%s  error: %v\n", origin, r.Err)
			continue
		}

		loop := "loops"
		if r.Repeats > 0 {
			loop = fmt.Sprintf("%d× (%.4g beats)", r.Repeats, r.StopBeats)
		}
		fmt.Fprintf(w, "%s  start %s  speed %.4g  %s  %d notes over %s beats\n",
			origin, r.Start, r.Speed, loop, len(r.Timeline.Events), r.Timeline.TotalBeats)

		for _, ev := range r.Timeline.Events {
			fmt.Fprintf(w, "    %-4s @ %-6s for %-6s vel %.3g\n", ev.Pitch, ev.StartBeats, ev.DurationBeats, ev.Velocity)
		}
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "    ! %s\n", d)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, strings.TrimSpace(string(data)))
	return err
}
