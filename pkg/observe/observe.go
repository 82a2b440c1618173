// Package observe defines the reporting interface injected into every
// pipeline stage. Stages emit structured events (counts, warnings, stage
// transitions) instead of writing to a process-global logger, so each
// stage's reporting output can be unit-tested in isolation.
package observe

import (
	"fmt"
	"time"
)

// Stage names a pipeline state. The run advances through these in order;
// Persisted is the terminal success state.
type Stage int

const (
	StageLoaded Stage = iota
	StageDeduplicated
	StageMissingHandled
	StageRenamed
	StageTypeConverted
	StageEnriched
	StageValidated
	StageNormalized
	StagePersisted
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "Loaded"
	case StageDeduplicated:
		return "Deduplicated"
	case StageMissingHandled:
		return "MissingHandled"
	case StageRenamed:
		return "Renamed"
	case StageTypeConverted:
		return "TypeConverted"
	case StageEnriched:
		return "Enriched"
	case StageValidated:
		return "Validated"
	case StageNormalized:
		return "Normalized"
	case StagePersisted:
		return "Persisted"
	default:
		return "Unknown"
	}
}

// Reporter receives structured pipeline events.
type Reporter interface {
	// StageStarted marks the beginning of a stage.
	StageStarted(stage Stage)

	// StageFinished marks the end of a stage with its row count.
	StageFinished(stage Stage, rows int, elapsed time.Duration)

	// RowsRemoved reports rows dropped by a stage for a given reason.
	RowsRemoved(stage Stage, reason string, n int)

	// ColumnNulls reports remaining null cells in a column.
	ColumnNulls(column string, n int, pct float64)

	// CoercionFailures reports values that could not be coerced to numeric.
	CoercionFailures(column string, n int)

	// ValidationIssue reports an advisory data-quality finding.
	ValidationIssue(check string, rows int)

	// AttributeFailures reports information fields no strategy could parse.
	AttributeFailures(n int)

	// Info reports a free-form progress message.
	Info(format string, args ...interface{})
}

// Nop is a Reporter that discards everything.
type Nop struct{}

func (Nop) StageStarted(Stage)                      {}
func (Nop) StageFinished(Stage, int, time.Duration) {}
func (Nop) RowsRemoved(Stage, string, int)          {}
func (Nop) ColumnNulls(string, int, float64)        {}
func (Nop) CoercionFailures(string, int)            {}
func (Nop) ValidationIssue(string, int)             {}
func (Nop) AttributeFailures(int)                   {}
func (Nop) Info(string, ...interface{})             {}

// Collector records events for assertions in tests.
type Collector struct {
	Stages     []Stage
	Removed    map[string]int // reason -> rows
	Nulls      map[string]int // column -> count
	Coercions  map[string]int // column -> count
	Issues     map[string]int // check -> rows
	AttrFails  int
	Messages   []string
	FinishedAt map[Stage]int // stage -> row count at finish
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		Removed:    make(map[string]int),
		Nulls:      make(map[string]int),
		Coercions:  make(map[string]int),
		Issues:     make(map[string]int),
		FinishedAt: make(map[Stage]int),
	}
}

func (c *Collector) StageStarted(s Stage) { c.Stages = append(c.Stages, s) }

func (c *Collector) StageFinished(s Stage, rows int, _ time.Duration) {
	c.FinishedAt[s] = rows
}

func (c *Collector) RowsRemoved(_ Stage, reason string, n int) { c.Removed[reason] += n }

func (c *Collector) ColumnNulls(column string, n int, _ float64) { c.Nulls[column] = n }

func (c *Collector) CoercionFailures(column string, n int) { c.Coercions[column] += n }

func (c *Collector) ValidationIssue(check string, rows int) { c.Issues[check] += rows }

func (c *Collector) AttributeFailures(n int) { c.AttrFails += n }

func (c *Collector) Info(format string, args ...interface{}) {
	c.Messages = append(c.Messages, fmt.Sprintf(format, args...))
}
