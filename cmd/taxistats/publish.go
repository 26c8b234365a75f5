package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/publisher"
	"github.com/jgoulah/taxistats/pkg/models"
)

var (
	publishAll   bool
	publishLimit int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish analysis run summaries over MQTT",
	Long:  `Reads recorded analysis runs from the database and publishes their summaries to the configured MQTT broker.`,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all runs (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of runs to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var runs []models.AnalysisRun
	if publishAll {
		runs, err = db.ListRuns()
	} else {
		runs, err = db.ListUnpublishedRuns()
	}
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if len(runs) == 0 {
		if publishAll {
			fmt.Println("No runs found")
		} else {
			fmt.Println("No unpublished runs found")
		}
		return nil
	}

	if publishLimit > 0 && len(runs) > publishLimit {
		runs = runs[:publishLimit]
		fmt.Printf("Limiting to %d runs (--limit flag)\n", publishLimit)
	}

	pub, err := publisher.New(cfg.MQTT, cfg.GetTopicPrefix())
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	// Oldest first so the retained summary ends on the newest run
	published := 0
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		fmt.Printf("[%d/%d] Publishing %s (%s)... ", len(runs)-i, len(runs), run.ID, run.CreatedAt.Format("2006-01-02 15:04"))
		if err := pub.Publish(run); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			log.Warn().Err(err).Str("run_id", run.ID).Msg("publish failed")
			continue
		}

		if err := db.MarkPublished(run.ID); err != nil {
			fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Printf("✓\n")
		}
		published++
	}

	fmt.Printf("\nSuccessfully published %d/%d runs\n", published, len(runs))
	return nil
}
