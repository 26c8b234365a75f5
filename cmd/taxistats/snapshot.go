package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/browser"
)

var (
	snapshotOut     string
	snapshotVisible bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [html-or-url]",
	Short: "Capture the dashboard as a PNG",
	Long:  `Opens a rendered dashboard (the configured report file by default, or a URL of a running 'serve') in headless Chrome and saves a full page screenshot.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "PNG output path (default from config, report.png)")
	snapshotCmd.Flags().BoolVar(&snapshotVisible, "visible", false, "Show browser window (for debugging)")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfg.GetReportPath()
	if len(args) > 0 {
		target = args[0]
	}
	out := cfg.GetSnapshotPath()
	if snapshotOut != "" {
		out = snapshotOut
	}

	fmt.Printf("Capturing %s...\n", target)
	img, err := browser.Capture(cmd.Context(), target, browser.Options{
		Visible: snapshotVisible,
		Timeout: cfg.GetSnapshotTimeout(),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, img, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	fmt.Printf("✓ Snapshot written to %s (%s)\n", out, humanize.Bytes(uint64(len(img))))
	return nil
}
