// MartFlow - catalog ETL pipeline
// Cleans a scraped e-commerce product export, normalizes it into a star
// schema, and persists it with analytical views for business reporting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	sourceFile   string
	cleanFile    string
	databaseFile string
	reportFile   string
	delimiter    string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "martflow",
	Short: "MartFlow - product catalog ETL and analytics",
	Long: `MartFlow ingests a scraped e-commerce product export (CSV), cleans and
enriches it, normalizes it into a star schema, and persists it to an
embedded analytical store with precomputed business views.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: clean, normalize, persist",
	Long: `Run the complete pipeline over a raw product export.

Examples:
  martflow run -i products_raw.csv
  martflow run -i products_raw.csv -d catalog.db --report report.xlsx`,
	RunE: runPipeline,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run only the cleaning and enrichment stages",
	Long: `Clean, enrich, and validate the raw export, writing the intermediate
clean file without touching the store. Pair with 'split'.`,
	RunE: runClean,
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Normalize a clean file into the persisted star schema",
	Long: `Read an intermediate clean file produced by 'clean', build the star
schema, and persist it with indexes and views.`,
	RunE: runSplit,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the business queries and export a workbook",
	RunE:  runReport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show table row counts and views of a persisted store",
	RunE:  runStats,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the full pipeline whenever the source file changes",
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	for _, cmd := range []*cobra.Command{runCmd, cleanCmd, watchCmd} {
		cmd.Flags().StringVarP(&sourceFile, "input", "i", "", "Raw product export CSV")
		cmd.Flags().StringVar(&delimiter, "delimiter", "", "Field delimiter (default \",\")")
	}
	for _, cmd := range []*cobra.Command{runCmd, cleanCmd, splitCmd, watchCmd} {
		cmd.Flags().StringVar(&cleanFile, "clean-output", "", "Intermediate clean CSV path")
	}
	for _, cmd := range []*cobra.Command{runCmd, splitCmd, reportCmd, statsCmd, watchCmd} {
		cmd.Flags().StringVarP(&databaseFile, "database", "d", "", "Persisted store path")
	}
	for _, cmd := range []*cobra.Command{runCmd, reportCmd} {
		cmd.Flags().StringVar(&reportFile, "report", "", "Business report workbook path (.xlsx)")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
}
