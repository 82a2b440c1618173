// Package pipeline orchestrates the batch run: load, clean, enrich,
// validate, normalize, persist. Stages run strictly in order, each one
// fully consuming its input table before the next starts; the only
// concurrency in the system lives in the read-only report layer.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/martflow/martflow/internal/model"
	"github.com/martflow/martflow/pkg/cleaner"
	"github.com/martflow/martflow/pkg/enrich"
	"github.com/martflow/martflow/pkg/errors"
	"github.com/martflow/martflow/pkg/normalize"
	"github.com/martflow/martflow/pkg/observe"
	"github.com/martflow/martflow/pkg/parser"
	"github.com/martflow/martflow/pkg/quality"
	"github.com/martflow/martflow/pkg/store"
	"github.com/martflow/martflow/pkg/telemetry"
	"github.com/martflow/martflow/pkg/writer"
)

// Persister writes one star schema build and swaps it into place.
// Satisfied by store.Writer; tests substitute a fake.
type Persister interface {
	Persist(ctx context.Context, s *normalize.StarSchema, rep observe.Reporter) error
	Commit() error
	Close() error
}

// Options configures a pipeline run.
type Options struct {
	SourcePath string
	Delimiter  rune
	CleanPath  string
	StorePath  string
	Reporter   observe.Reporter

	// NewPersister overrides the store writer, for tests.
	NewPersister func(path string) (Persister, error)
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	RowsLoaded int
	RowsKept   int
	Products   int
	Brands     int
	Categories int
	Reviews    int
	Attributes int
	Validation *quality.Result
	Duration   time.Duration
}

// Runner executes the pipeline state machine.
type Runner struct {
	opts  Options
	rep   observe.Reporter
	runID string
}

// New creates a Runner. A nil Reporter means events are discarded.
func New(opts Options) *Runner {
	if opts.Reporter == nil {
		opts.Reporter = observe.Nop{}
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.NewPersister == nil {
		opts.NewPersister = func(path string) (Persister, error) {
			return store.NewWriter(path)
		}
	}
	return &Runner{opts: opts, rep: opts.Reporter, runID: uuid.New().String()}
}

// RunID returns this run's identifier.
func (r *Runner) RunID() string { return r.runID }

// Run executes the full pipeline: source file through persisted store.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	table, res, err := r.clean(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.split(ctx, table, res); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Clean runs only the load-through-enrich half and writes the
// intermediate clean file.
func (r *Runner) Clean(ctx context.Context) (*Result, error) {
	start := time.Now()
	_, res, err := r.clean(ctx)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Split runs only the normalize-and-persist half, reading the
// intermediate clean file written by an earlier Clean.
func (r *Runner) Split(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.runID}

	table, err := writer.ReadClean(r.opts.CleanPath, r.rep)
	if err != nil {
		return nil, err
	}
	res.RowsLoaded = table.Len()
	res.RowsKept = table.Len()

	if err := r.split(ctx, table, res); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

// clean advances the state machine from Loaded to Validated and writes
// the intermediate artifact when a clean path is configured.
func (r *Runner) clean(ctx context.Context) (*model.Table, *Result, error) {
	res := &Result{RunID: r.runID}

	var table *model.Table
	err := r.stage(ctx, observe.StageLoaded, func() error {
		var err error
		table, err = parser.LoadCSV(r.opts.SourcePath, parser.Options{Delimiter: r.opts.Delimiter}, r.rep)
		if err != nil {
			return err
		}
		res.RowsLoaded = table.Len()
		return nil
	}, func() int { return res.RowsLoaded })
	if err != nil {
		return nil, nil, err
	}

	transforms := []struct {
		stage observe.Stage
		fn    func(*model.Table) *model.Table
	}{
		{observe.StageDeduplicated, func(t *model.Table) *model.Table { return cleaner.RemoveDuplicates(t, r.rep) }},
		{observe.StageMissingHandled, func(t *model.Table) *model.Table { return cleaner.CleanMissingValues(t, r.rep) }},
		{observe.StageRenamed, func(t *model.Table) *model.Table { return cleaner.RenameColumns(t, r.rep) }},
		{observe.StageTypeConverted, func(t *model.Table) *model.Table { return cleaner.ConvertDataTypes(t, r.rep) }},
		{observe.StageEnriched, func(t *model.Table) *model.Table { return enrich.AddCalculatedFields(t, r.rep) }},
	}
	for _, tr := range transforms {
		tr := tr
		err := r.stage(ctx, tr.stage, func() error {
			table = tr.fn(table)
			return nil
		}, func() int { return table.Len() })
		if err != nil {
			return nil, nil, err
		}
	}

	// Validation is advisory: findings are reported, the run proceeds.
	err = r.stage(ctx, observe.StageValidated, func() error {
		res.Validation = quality.ValidateData(table, r.rep)
		return nil
	}, func() int { return table.Len() })
	if err != nil {
		return nil, nil, err
	}

	res.RowsKept = table.Len()

	if r.opts.CleanPath != "" {
		if err := writer.WriteClean(r.opts.CleanPath, table, r.rep); err != nil {
			return nil, nil, err
		}
	}
	return table, res, nil
}

// split advances the state machine from Normalized to Persisted.
func (r *Runner) split(ctx context.Context, table *model.Table, res *Result) error {
	var schema *normalize.StarSchema
	err := r.stage(ctx, observe.StageNormalized, func() error {
		schema = normalize.Build(table, r.rep)
		res.Products = len(schema.Products)
		res.Brands = len(schema.Brands)
		res.Categories = len(schema.Categories)
		res.Reviews = len(schema.Reviews)
		res.Attributes = len(schema.Attributes)
		return nil
	}, func() int { return res.Products })
	if err != nil {
		return err
	}

	return r.stage(ctx, observe.StagePersisted, func() error {
		w, err := r.opts.NewPersister(r.opts.StorePath)
		if err != nil {
			return err
		}
		if err := w.Persist(ctx, schema, r.rep); err != nil {
			w.Close()
			return err
		}
		return w.Commit()
	}, func() int { return res.Products })
}

// stage wraps one state transition with reporting, tracing, and
// cancellation checks.
func (r *Runner) stage(ctx context.Context, s observe.Stage, fn func() error, rows func() int) error {
	if err := ctx.Err(); err != nil {
		return errors.ContextCanceled(s.String())
	}

	ctx, span := telemetry.StartStage(ctx, s.String(), r.runID)
	defer span.End()

	r.rep.StageStarted(s)
	start := time.Now()
	if err := fn(); err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	r.rep.StageFinished(s, rows(), time.Since(start))
	return nil
}
