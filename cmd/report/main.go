// Command report renders the sales insights report from the command
// line and verifies the published figures.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aw-insights/internal/config"
	"aw-insights/internal/insights"
	"aw-insights/internal/observability"
	"aw-insights/internal/services"
)

const loadTimeout = 5 * time.Minute

var (
	workbookPath string
	csvPath      string
	cacheDir     string
	outputPath   string
)

func main() {
	root := &cobra.Command{
		Use:           "report",
		Short:         "AdventureWorks sales insights reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&workbookPath, "workbook", "", "path to the AdventureWorks .xlsx workbook")
	root.PersistentFlags().StringVar(&csvPath, "csv", "", "path to a flattened sales CSV export")
	root.PersistentFlags().StringVar(&cacheDir, "cache-dir", ".cache", "snapshot cache directory (empty disables caching)")

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Render the markdown insights report",
		RunE:  runGenerate,
	}
	generate.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check the published figures for internal consistency",
		RunE:  runVerify,
	}

	root.AddCommand(generate, verify)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadSnapshot builds an analytics snapshot from the flag-selected
// source, falling back to the server configuration when no flag is
// given.
func loadSnapshot(ctx context.Context) (*services.Snapshot, error) {
	logger := observability.NewLogger(config.LoggerConfig{Level: "warn", Format: "text"})
	slog.SetDefault(logger)

	workbook, csvFile := workbookPath, csvPath
	if workbook == "" && csvFile == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("no data source given and configuration is invalid: %w", err)
		}
		workbook, csvFile = cfg.Data.Workbook, cfg.Data.CSVFile
	}

	analytics := services.NewAnalytics()
	analytics.SetCacheDir(cacheDir)

	var err error
	if workbook != "" {
		err = analytics.LoadWorkbook(ctx, workbook)
	} else {
		err = analytics.LoadCSV(ctx, csvFile)
	}
	if err != nil {
		return nil, err
	}

	return analytics.Snapshot(), nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()

	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := insights.WriteReport(out, snap); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputPath)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()

	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	findings := insights.Verify(snap)
	for _, f := range findings {
		status := "ok"
		if !f.OK {
			status = "FAIL"
		}
		fmt.Printf("%-4s %s (want %.4f, got %.4f)\n", status, f.Check, f.Want, f.Got)
	}

	if !findings.OK() {
		return fmt.Errorf("%d of %d checks failed", countFailed(findings), len(findings))
	}

	fmt.Printf("all %d checks passed\n", len(findings))
	return nil
}

func countFailed(findings insights.Findings) int {
	var n int
	for _, f := range findings {
		if !f.OK {
			n++
		}
	}
	return n
}
