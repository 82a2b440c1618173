package tui

import (
	"testing"
	"time"

	"github.com/martflow/martflow/pkg/observe"
)

func TestConsoleReporterProgress(t *testing.T) {
	r := &ConsoleReporter{Stages: 3}

	stages := []observe.Stage{
		observe.StageLoaded,
		observe.StageDeduplicated,
		observe.StageMissingHandled,
	}
	for i, s := range stages {
		r.StageStarted(s)
		if r.bar == nil {
			t.Fatalf("no progress bar after stage %d started", i)
		}
		r.StageFinished(s, 10, time.Millisecond)
	}

	if r.bar != nil {
		t.Error("progress bar not cleared after the final stage")
	}
	if r.done != len(stages) {
		t.Errorf("done = %d, want %d", r.done, len(stages))
	}
}

func TestConsoleReporterVerboseSkipsBar(t *testing.T) {
	r := &ConsoleReporter{Verbose: true, Stages: 3}

	r.StageStarted(observe.StageLoaded)
	r.StageFinished(observe.StageLoaded, 10, time.Millisecond)

	if r.bar != nil {
		t.Error("verbose mode must not create a progress bar")
	}
}

func TestConsoleReporterZeroStages(t *testing.T) {
	r := &ConsoleReporter{}

	r.StageStarted(observe.StageLoaded)
	r.StageFinished(observe.StageLoaded, 10, time.Millisecond)
	r.RowsRemoved(observe.StageDeduplicated, "exact duplicate", 1)

	if r.bar != nil {
		t.Error("zero stage count must disable the progress bar")
	}
}
