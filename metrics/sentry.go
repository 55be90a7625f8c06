package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Spans are dropped by the SDK when Sentry is not initialised
	}
}

// Init configures the Sentry SDK. An empty DSN leaves Sentry disabled.
func Init(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 1.0,
	}); err != nil {
		return fmt.Errorf("failed to initialise sentry: %w", err)
	}
	return nil
}

// Flush waits for buffered events to be sent
func Flush() {
	sentry.Flush(2 * time.Second)
}

// RecordTurtleRun records the outcome of a single turtle walk
func (m *SentryMetrics) RecordTurtleRun(ctx context.Context, start string, noteCount int, loopBeats float64, diagnostics int) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "turtle.run")
	defer span.Finish()

	span.SetTag("start", start)
	span.SetData("note_count", noteCount)
	span.SetData("loop_beats", loopBeats)
	span.SetData("diagnostics", diagnostics)

	if diagnostics > 0 {
		span.Status = sentry.SpanStatusInvalidArgument
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Description = fmt.Sprintf("Turtle %s: %d notes", start, noteCount)
}

// RecordSheetRun records a whole-sheet evaluation
func (m *SentryMetrics) RecordSheetRun(ctx context.Context, duration time.Duration, turtles int, success bool) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("turtles", fmt.Sprintf("%d", turtles))
		transaction.SetData("turtles", turtles)
	}

	span := sentry.StartSpan(ctx, "sheet.run")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("turtles", turtles)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Sheet Run: %d turtles", turtles)
}
