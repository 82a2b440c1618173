// Package tui renders pipeline progress and results to the terminal.
// Simple streaming output, no full-screen interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFAA00")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
)

// PrintRunHeader prints the banner at the start of a pipeline run.
func PrintRunHeader(runID, source string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  MARTFLOW") + mutedStyle.Render("  catalog pipeline"))
	fmt.Println(mutedStyle.Render("  run:    ") + runID)
	fmt.Println(mutedStyle.Render("  source: ") + source)
	fmt.Println(mutedStyle.Render("  " + strings.Repeat("─", 48)))
}

// RunSummary holds the numbers shown after a successful run.
type RunSummary struct {
	RowsLoaded int
	RowsKept   int
	Products   int
	Brands     int
	Categories int
	Reviews    int
	Attributes int
	StorePath  string
	Duration   time.Duration
}

// PrintRunSummary prints results after a successful run.
func PrintRunSummary(s RunSummary) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ PIPELINE COMPLETE"))
	fmt.Println()
	fmt.Printf("  %s %s of %s rows kept\n",
		mutedStyle.Render("Input:"),
		titleStyle.Render(formatNumber(int64(s.RowsKept))),
		formatNumber(int64(s.RowsLoaded)))
	fmt.Printf("  %s %s products, %s brands, %s categories\n",
		mutedStyle.Render("Schema:"),
		titleStyle.Render(formatNumber(int64(s.Products))),
		formatNumber(int64(s.Brands)),
		formatNumber(int64(s.Categories)))
	fmt.Printf("  %s %s reviews, %s attributes\n",
		mutedStyle.Render("Derived:"),
		formatNumber(int64(s.Reviews)),
		formatNumber(int64(s.Attributes)))
	fmt.Printf("  %s %s %s\n",
		mutedStyle.Render("Store:"),
		s.StorePath,
		mutedStyle.Render("("+formatDuration(s.Duration)+")"))
	fmt.Println()
}

// PrintFailureBanner prints a clearly bounded failure block. Fatal
// pipeline errors end up here before the process exits non-zero.
func PrintFailureBanner(err error) {
	line := strings.Repeat("═", 52)
	fmt.Println()
	fmt.Println(accentStyle.Render("  " + line))
	fmt.Println(accentStyle.Render("  ✗ PIPELINE FAILED"))
	fmt.Println(accentStyle.Render("  " + line))
	fmt.Println("  " + err.Error())
	fmt.Println(accentStyle.Render("  " + line))
	fmt.Println()
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// ShowProgress creates a progress bar for row processing.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// ClearLine clears the current line.
func ClearLine() {
	fmt.Print("\r\033[K")
}
