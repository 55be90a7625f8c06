package turtle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/magda-turtles-go/config"
	"github.com/Conceptual-Machines/magda-turtles-go/metrics"
	"github.com/Conceptual-Machines/magda-turtles-go/models"
	"github.com/getsentry/sentry-go"
	"github.com/sourcegraph/conc/iter"
)

// TurtleAgent finds every turtle on a sheet and compiles each one into a
// timeline for playback.
type TurtleAgent struct {
	pipeline       Pipeline
	referenceTempo float64
	workers        int
	metrics        *metrics.SentryMetrics
}

// TurtleResult is one independent turtle run. A range declaration produces
// one result per start cell.
type TurtleResult struct {
	Origin      models.Coordinate `json:"origin"`
	Declaration string            `json:"declaration"`
	Run
	Speed       float64  `json:"speed"`
	Repeats     int      `json:"repeats"`
	StopBeats   float64  `json:"stopBeats,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	Err         error    `json:"-"`
	Error       string   `json:"error,omitempty"`
}

// NewTurtleAgent creates a new turtle agent
func NewTurtleAgent(cfg *config.Config) (*TurtleAgent, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	pipeline, err := NewPipeline(cfg.Dynamics.Default)
	if err != nil {
		return nil, fmt.Errorf("failed to configure pipeline: %w", err)
	}

	agent := &TurtleAgent{
		pipeline:       pipeline,
		referenceTempo: cfg.Tempo.Reference,
		workers:        max(cfg.Run.Workers, 1),
		metrics:        metrics.NewSentryMetrics(),
	}

	log.Printf("🐢 TURTLE AGENT INITIALIZED:")
	log.Printf("   Reference tempo: %.0f BPM, default dynamic: %s, workers: %d",
		agent.referenceTempo, cfg.Dynamics.Default, agent.workers)

	return agent, nil
}

// job is one turtle start waiting to be evaluated.
type job struct {
	origin models.Coordinate
	raw    string
	decl   Declaration
	start  string
	err    error
}

// RunSheet evaluates every turtle declared on the grid. Results come back in
// the order the declarations appear (row by row), and each turtle's failure
// is reported on its own result rather than aborting the others.
func (a *TurtleAgent) RunSheet(ctx context.Context, grid Grid) ([]TurtleResult, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "turtles.run")
	defer transaction.Finish()
	ctx = transaction.Context()

	if err := ctx.Err(); err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	jobs := a.collect(grid)
	log.Printf("🐢 SHEET RUN STARTED: %d turtles", len(jobs))

	mapper := iter.Mapper[job, TurtleResult]{MaxGoroutines: a.workers}
	results := mapper.Map(jobs, func(j *job) TurtleResult {
		return a.evaluate(ctx, grid, *j)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			sentry.CaptureException(r.Err)
		}
	}

	success := failed == 0
	transaction.SetTag("success", fmt.Sprintf("%t", success))
	a.metrics.RecordSheetRun(ctx, time.Since(startTime), len(results), success)

	log.Printf("✅ SHEET RUN COMPLETE: %d turtles, %d failed", len(results), failed)
	return results, nil
}

// collect scans the grid for declarations and expands them into jobs.
func (a *TurtleAgent) collect(grid Grid) []job {
	var jobs []job
	rows, cols := grid.Bounds()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			value := grid.Cell(row, col)
			if !IsTurtle(value) {
				continue
			}
			origin := models.Coordinate{Row: row, Col: col}

			decl, err := ParseDeclaration(value, a.referenceTempo)
			if err != nil {
				jobs = append(jobs, job{origin: origin, raw: value, err: err})
				continue
			}
			if decl.IsSpan() {
				jobs = append(jobs, job{origin: origin, raw: value, decl: decl, start: decl.Start})
				continue
			}

			starts, err := decl.Starts()
			if err != nil {
				jobs = append(jobs, job{origin: origin, raw: value, decl: decl, err: err})
				continue
			}
			for _, start := range starts {
				jobs = append(jobs, job{origin: origin, raw: value, decl: decl, start: start})
			}
		}
	}
	return jobs
}

func (a *TurtleAgent) evaluate(ctx context.Context, grid Grid, j job) TurtleResult {
	result := TurtleResult{
		Origin:      j.origin,
		Declaration: j.raw,
		Speed:       j.decl.Speed,
		Repeats:     j.decl.Repeats,
		Diagnostics: append([]string(nil), j.decl.Diagnostics...),
	}
	if j.err != nil {
		return result.failed(fmt.Errorf("turtle at %s: %w", FormatAddress(j.origin), j.err))
	}

	var run Run
	var err error
	if j.decl.IsSpan() {
		run, err = a.pipeline.Span(j.decl.Start, j.decl.Moves, grid)
	} else {
		run, err = a.pipeline.Run(j.start, j.decl.Moves, grid)
	}
	if err != nil {
		return result.failed(fmt.Errorf("turtle at %s: %w", FormatAddress(j.origin), err))
	}

	result.Run = run
	result.Diagnostics = append(result.Diagnostics, run.Walk.Diagnostics...)
	if stop, ok := j.decl.StopBeats(run.Timeline.TotalBeats); ok {
		result.StopBeats = stop
	}

	a.metrics.RecordTurtleRun(ctx, run.Start, len(run.Timeline.Events),
		run.Timeline.TotalBeats.Float64(), len(result.Diagnostics))
	return result
}

func (r TurtleResult) failed(err error) TurtleResult {
	log.Printf("❌ %v", err)
	r.Err = err
	r.Error = err.Error()
	return r
}
