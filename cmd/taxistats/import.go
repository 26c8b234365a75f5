package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Store CSV observations in the database",
	Long:  `Parses the ride-count CSV and stores every observation in the local SQLite database. Timestamps already present are skipped.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Import started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	frame, source, err := loadFrame(cfg, args, false)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	inserted, err := db.InsertObservations(frame.Observations(), source)
	if err != nil {
		return fmt.Errorf("storing observations: %w", err)
	}

	total, err := db.CountObservations()
	if err != nil {
		return err
	}

	log.Debug().Str("source", source).Int("parsed", frame.Len()).Int("inserted", inserted).Msg("import finished")
	fmt.Printf("✓ Imported %s new observations (%s duplicates skipped, %s stored)\n",
		humanize.Comma(int64(inserted)),
		humanize.Comma(int64(frame.Len()-inserted)),
		humanize.Comma(int64(total)))
	return nil
}
