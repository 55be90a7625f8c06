// Package cli is the turtles command tree.
package cli

import (
	"io"
	"log"

	"github.com/Conceptual-Machines/magda-turtles-go/config"
	"github.com/Conceptual-Machines/magda-turtles-go/metrics"
	"github.com/spf13/cobra"
)

// app is the state shared by every command once flags are parsed.
type app struct {
	cfgFile string
	quiet   bool
	cfg     *config.Config
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "turtles",
		Short: "Play spreadsheet grids of notes with turtles",
		Long: `Turtles reads a sheet of cells (CSV or YAML), finds every !turtle(...)
declaration, walks each turtle over the grid and compiles the cells it
visits into a timeline of notes that can be inspected or written as MIDI.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $HOME/.config/turtles/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress log output")

	root.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newExpandCmd(a),
		newWalkCmd(a),
		newHighlightCmd(a),
		newChordCmd(a),
		newTransposeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	if a.quiet {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(config.NewViper(a.cfgFile))
	if err != nil {
		return err
	}
	a.cfg = cfg

	return metrics.Init(cfg.Sentry.DSN, cfg.Sentry.Environment)
}
