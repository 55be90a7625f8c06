package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Conceptual-Machines/magda-turtles-go/agents/turtle"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/Conceptual-Machines/magda-turtles-go/render"
	"github.com/Conceptual-Machines/magda-turtles-go/sheet"
	"github.com/spf13/cobra"
)

func newExpandCmd(a *app) *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "expand <instructions>",
		Short: "Expand bracketed repeats in movement instructions",
		Example: `  turtles expand "(r m3)4"
  turtles expand "m2 (l m1 (r m1)2)3"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instructions := strings.Join(args, " ")
			root := turtle.ParseBrackets(instructions)
			if tree {
				printTree(cmd.OutOrStdout(), root, 0)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), turtle.Expand(root))
			return nil
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "print the bracket tree instead of the expansion")
	return cmd
}

func printTree(w io.Writer, n turtle.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.Kind == turtle.NodeLiteral {
		fmt.Fprintf(w, "%s%q\n", indent, n.Text)
		return
	}
	fmt.Fprintf(w, "%s( )\n", indent)
	for _, child := range n.Children {
		printTree(w, child, depth+1)
	}
}

func newWalkCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		show   bool
	)

	cmd := &cobra.Command{
		Use:   "walk <sheet> <start> <instructions>",
		Short: "Walk one turtle over a sheet without a declaration cell",
		Example: `  turtles walk song.csv A2 "r m3"
  turtles walk song.yaml B4 "(r m2)4" --show`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sheet.Load(args[0])
			if err != nil {
				return err
			}

			pipeline, err := turtle.NewPipeline(a.cfg.Dynamics.Default)
			if err != nil {
				return err
			}
			run, err := pipeline.Run(args[1], strings.Join(args[2:], " "), s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, run)
			}
			if show {
				fmt.Fprint(out, render.Highlight(s, run.Walk.Trace))
			}

			fmt.Fprintf(out, "instructions: %s\n", strings.Join(run.Instructions, " "))
			fmt.Fprintf(out, "path: %s\n", strings.Join(addresses(run.Walk.Trace), " "))
			printResults(out, []turtle.TurtleResult{{
				Origin:      coordinateOf(run.Start),
				Run:         run,
				Speed:       1,
				Diagnostics: run.Walk.Diagnostics,
			}})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	cmd.Flags().BoolVar(&show, "show", false, "draw the sheet with the path marked")
	return cmd
}

func newHighlightCmd(a *app) *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "highlight <sheet>",
		Short: "Draw a sheet with notes, sustains and turtles coloured",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sheet.Load(args[0])
			if err != nil {
				return err
			}

			var path []models.Coordinate
			if trace {
				results, err := a.runSheet(cmd.Context(), s)
				if err != nil {
					return err
				}
				for _, r := range results {
					path = append(path, r.Walk.Trace...)
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), render.Highlight(s, path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&trace, "trace", false, "run every turtle and mark the cells they visit")
	return cmd
}

func addresses(trace []models.Coordinate) []string {
	out := make([]string, len(trace))
	for i, c := range trace {
		out[i] = turtle.FormatAddress(c)
	}
	return out
}

func coordinateOf(address string) models.Coordinate {
	c, _ := turtle.ParseAddress(address)
	return c
}
