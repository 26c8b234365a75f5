package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/report"
	"github.com/jgoulah/taxistats/pkg/models"
)

var (
	analyzeOut    string
	analyzeFromDB bool
	analyzeNoSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [csv]",
	Short: "Run the analysis and write the HTML dashboard",
	Long: `Loads the ride-count CSV (or the imported observations with --from-db), runs every
analysis step and writes a self-contained HTML dashboard. The run is recorded in the database
so it can be listed and published later.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "HTML output path (default from config, report.html)")
	analyzeCmd.Flags().BoolVar(&analyzeFromDB, "from-db", false, "Analyze observations stored in the database instead of a CSV")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "Do not record the run in the database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Analysis started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	frame, source, err := loadFrame(cfg, args, analyzeFromDB)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s observations from %s\n", humanize.Comma(int64(frame.Len())), source)

	opts, err := reportOptions(cfg, source)
	if err != nil {
		return err
	}

	rep, err := report.Build(cmd.Context(), frame, opts)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	out := cfg.GetReportPath()
	if analyzeOut != "" {
		out = analyzeOut
	}
	if err := writeReport(rep, out); err != nil {
		return err
	}
	fmt.Printf("✓ Dashboard written to %s\n", out)

	if rep.ADF != nil {
		fmt.Printf("  - ADF statistic: %.4f (p-value %.4f, %d lags)\n", rep.ADF.Statistic, rep.ADF.PValue, rep.ADF.UsedLag)
	}

	if analyzeNoSave {
		return nil
	}

	run, err := newRun(rep, out)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.InsertRun(run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	fmt.Printf("✓ Recorded run %s\n", run.ID)
	return nil
}

// writeReport renders the dashboard to path, creating parent directories
func writeReport(rep *report.Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := rep.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing dashboard: %w", err)
	}
	return nil
}

// newRun builds the database record of a report
func newRun(rep *report.Report, reportPath string) (*models.AnalysisRun, error) {
	summary, err := json.Marshal(rep.Summary())
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}

	run := &models.AnalysisRun{
		ID:         rep.ID,
		CreatedAt:  rep.GeneratedAt,
		Source:     rep.Source,
		Rows:       rep.Info.Rows,
		ADFStat:    math.NaN(),
		PValue:     math.NaN(),
		ReportPath: reportPath,
		Summary:    string(summary),
	}
	if rep.ADF != nil {
		run.ADFStat = rep.ADF.Statistic
		run.PValue = rep.ADF.PValue
		run.UsedLag = rep.ADF.UsedLag
		run.NObs = rep.ADF.NObs
	}
	return run, nil
}
