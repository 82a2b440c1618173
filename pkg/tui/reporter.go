package tui

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/martflow/martflow/pkg/observe"
)

// ConsoleReporter renders structured pipeline events to the terminal.
// When Stages is set and Verbose is off, a progress bar tracks stage
// completion; warnings clear the bar line before printing.
type ConsoleReporter struct {
	// Verbose prints per-stage lines, per-column null statistics, and
	// stage timings instead of the progress bar.
	Verbose bool

	// Stages is the number of stages this run will execute. Zero
	// disables the progress bar.
	Stages int

	bar  *progressbar.ProgressBar
	done int
}

var _ observe.Reporter = (*ConsoleReporter)(nil)

func (r *ConsoleReporter) StageStarted(stage observe.Stage) {
	if r.Verbose {
		fmt.Println(mutedStyle.Render("  ▸ " + stage.String()))
		return
	}
	if r.Stages > 0 {
		if r.bar == nil {
			r.bar = ShowProgress(int64(r.Stages), stage.String())
		}
		r.bar.Describe(stage.String())
	}
}

func (r *ConsoleReporter) StageFinished(stage observe.Stage, rows int, elapsed time.Duration) {
	if r.Verbose {
		fmt.Printf("  %s %s %s\n",
			mutedStyle.Render("✓"),
			stage.String(),
			mutedStyle.Render(fmt.Sprintf("(%d rows, %s)", rows, formatDuration(elapsed))))
		return
	}
	if r.bar == nil {
		return
	}
	r.bar.Add(1)
	r.done++
	if r.done >= r.Stages {
		r.bar.Finish()
		ClearLine()
		r.bar = nil
	}
}

// interrupt clears the progress bar line so a message prints cleanly.
func (r *ConsoleReporter) interrupt() {
	if r.bar != nil {
		ClearLine()
	}
}

func (r *ConsoleReporter) RowsRemoved(stage observe.Stage, reason string, n int) {
	r.interrupt()
	fmt.Printf("  %s removed %d rows: %s\n", mutedStyle.Render("−"), n, reason)
}

func (r *ConsoleReporter) ColumnNulls(column string, n int, pct float64) {
	if r.Verbose {
		fmt.Printf("  %s %s: %d nulls (%.1f%%)\n", mutedStyle.Render("·"), column, n, pct)
	}
}

func (r *ConsoleReporter) CoercionFailures(column string, n int) {
	r.interrupt()
	fmt.Println(warnStyle.Render(fmt.Sprintf("  ! %s: %d values could not be parsed, set to null", column, n)))
}

func (r *ConsoleReporter) ValidationIssue(check string, rows int) {
	r.interrupt()
	fmt.Println(warnStyle.Render(fmt.Sprintf("  ! validation: %s (%d rows)", check, rows)))
}

func (r *ConsoleReporter) AttributeFailures(n int) {
	r.interrupt()
	fmt.Println(warnStyle.Render(fmt.Sprintf("  ! %d information fields could not be parsed, no attributes emitted", n)))
}

func (r *ConsoleReporter) Info(format string, args ...interface{}) {
	// Progress messages would fight the bar for the line; the bar's
	// stage description carries the same information.
	if !r.Verbose && r.bar != nil {
		return
	}
	fmt.Println(mutedStyle.Render("  " + fmt.Sprintf(format, args...)))
}
