package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/martflow/martflow/pkg/config"
	"github.com/martflow/martflow/pkg/observe"
	"github.com/martflow/martflow/pkg/pipeline"
	"github.com/martflow/martflow/pkg/report"
	"github.com/martflow/martflow/pkg/store"
	"github.com/martflow/martflow/pkg/telemetry"
	"github.com/martflow/martflow/pkg/tui"
	"github.com/martflow/martflow/pkg/watch"
)

// effectiveConfig merges flags over the loaded configuration.
// Flags win over env, env over files, files over defaults.
func effectiveConfig() *config.Config {
	cfg := config.Global().Get()
	if sourceFile != "" {
		cfg.Source.Path = sourceFile
	}
	if delimiter != "" {
		cfg.Source.Delimiter = delimiter
	}
	if cleanFile != "" {
		cfg.Clean.Output = cleanFile
	}
	if databaseFile != "" {
		cfg.Storage.Database = databaseFile
	}
	if reportFile != "" {
		cfg.Report.Output = reportFile
	}
	return cfg
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, cleaning up...")
		cancel()
	}()

	return ctx, cancel
}

// setupTelemetry initializes trace export when configured. The returned
// shutdown function is safe to call unconditionally.
func setupTelemetry(ctx context.Context, cfg *config.Config) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint == "" {
		return noop
	}

	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig(cfg.Telemetry.Endpoint))
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		return noop
	}
	return shutdown
}

// Stage counts for the progress bar. The clean half runs Loaded through
// Validated; the split half runs Normalized and Persisted.
const (
	fullStageCount  = int(observe.StagePersisted) + 1
	cleanStageCount = int(observe.StageValidated) + 1
	splitStageCount = fullStageCount - cleanStageCount
)

func newRunner(cfg *config.Config, stages int) *pipeline.Runner {
	delim := ','
	if cfg.Source.Delimiter != "" {
		delim = rune(cfg.Source.Delimiter[0])
	}
	return pipeline.New(pipeline.Options{
		SourcePath: cfg.Source.Path,
		Delimiter:  delim,
		CleanPath:  cfg.Clean.Output,
		StorePath:  cfg.Storage.Database,
		Reporter:   &tui.ConsoleReporter{Verbose: verbose, Stages: stages},
	})
}

func requireSource(cfg *config.Config) error {
	if cfg.Source.Path == "" {
		return fmt.Errorf("no source file: pass --input or set source.path in config")
	}
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig()
	if err := requireSource(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	shutdown := setupTelemetry(ctx, cfg)
	defer shutdown(context.Background())

	return executeRun(ctx, cfg)
}

// executeRun performs one full pipeline pass and prints the outcome.
// Fatal errors surface as a bounded failure banner and a non-zero exit.
func executeRun(ctx context.Context, cfg *config.Config) error {
	runner := newRunner(cfg, fullStageCount)
	tui.PrintRunHeader(runner.RunID(), cfg.Source.Path)

	res, err := runner.Run(ctx)
	if err != nil {
		tui.PrintFailureBanner(err)
		return err
	}

	tui.PrintRunSummary(tui.RunSummary{
		RowsLoaded: res.RowsLoaded,
		RowsKept:   res.RowsKept,
		Products:   res.Products,
		Brands:     res.Brands,
		Categories: res.Categories,
		Reviews:    res.Reviews,
		Attributes: res.Attributes,
		StorePath:  cfg.Storage.Database,
		Duration:   res.Duration,
	})

	if verbose && res.Validation != nil {
		fmt.Println(res.Validation.Report())
	}

	if cfg.Report.Output != "" {
		if err := exportReport(ctx, cfg); err != nil {
			tui.PrintFailureBanner(err)
			return err
		}
	}
	return nil
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig()
	if err := requireSource(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := newRunner(cfg, cleanStageCount)
	tui.PrintRunHeader(runner.RunID(), cfg.Source.Path)

	res, err := runner.Clean(ctx)
	if err != nil {
		tui.PrintFailureBanner(err)
		return err
	}

	fmt.Printf("\n  Clean file ready: %s (%d of %d rows, %s)\n\n",
		cfg.Clean.Output, res.RowsKept, res.RowsLoaded, res.Duration.Round(time.Millisecond))
	if verbose && res.Validation != nil {
		fmt.Println(res.Validation.Report())
	}
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig()

	ctx, cancel := signalContext()
	defer cancel()

	runner := newRunner(cfg, splitStageCount)
	tui.PrintRunHeader(runner.RunID(), cfg.Clean.Output)

	res, err := runner.Split(ctx)
	if err != nil {
		tui.PrintFailureBanner(err)
		return err
	}

	tui.PrintRunSummary(tui.RunSummary{
		RowsLoaded: res.RowsLoaded,
		RowsKept:   res.RowsKept,
		Products:   res.Products,
		Brands:     res.Brands,
		Categories: res.Categories,
		Reviews:    res.Reviews,
		Attributes: res.Attributes,
		StorePath:  cfg.Storage.Database,
		Duration:   res.Duration,
	})
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig()

	ctx, cancel := signalContext()
	defer cancel()

	return exportReport(ctx, cfg)
}

func exportReport(ctx context.Context, cfg *config.Config) error {
	results, err := report.Run(ctx, cfg.Storage.Database)
	if err != nil {
		return err
	}

	for _, rs := range results {
		fmt.Printf("\n  %s\n", rs.Title)
		printResultSet(rs)
	}

	if cfg.Report.Output != "" {
		if err := report.ExportXLSX(results, cfg.Report.Output); err != nil {
			return err
		}
		fmt.Printf("\n  Workbook written: %s\n\n", cfg.Report.Output)
	}
	return nil
}

func printResultSet(rs report.ResultSet) {
	widths := make([]int, len(rs.Columns))
	for i, c := range rs.Columns {
		widths[i] = len(c)
	}
	for _, row := range rs.Rows {
		for i, v := range row {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	for i, c := range rs.Columns {
		fmt.Printf("  %-*s", widths[i]+2, c)
	}
	fmt.Println()
	for _, row := range rs.Rows {
		for i, v := range row {
			fmt.Printf("  %-*s", widths[i]+2, v)
		}
		fmt.Println()
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig()

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := store.ReadStats(ctx, cfg.Storage.Database)
	if err != nil {
		return err
	}

	fmt.Printf("\n  Store: %s\n\n", stats.Path)
	fmt.Printf("  %-24s %s\n", "Table", "Rows")
	for _, t := range stats.Tables {
		fmt.Printf("  %-24s %d\n", t.Table, t.Rows)
	}
	fmt.Println("\n  Views:")
	for _, v := range stats.Views {
		fmt.Printf("    %s\n", v)
	}
	fmt.Println()
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig()
	if err := requireSource(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	shutdown := setupTelemetry(ctx, cfg)
	defer shutdown(context.Background())

	// One full pass up front so the store exists before the first change.
	if err := executeRun(ctx, cfg); err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(cfg.Source.Path, cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	watcher.OnChange = func(path string) error {
		fmt.Printf("\n  Source changed: %s\n", path)
		// A failed rebuild keeps watching; the banner already reported it.
		executeRun(ctx, cfg)
		return nil
	}
	watcher.OnError = func(err error) {
		fmt.Fprintf(os.Stderr, "  watch error: %v\n", err)
	}

	fmt.Printf("  Watching %s for changes (Ctrl-C to stop)\n", cfg.Source.Path)
	err = watcher.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
