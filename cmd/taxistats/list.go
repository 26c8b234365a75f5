package main

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/dataset"
)

var (
	listSince string
	listUntil string
	listRuns  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored daily means or analysis runs",
	Long:  `Displays the daily mean ride counts of the imported observations, or the recorded analysis runs with --runs.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listSince, "since", "", "Only show data since this date (YYYY-MM-DD or relative like 7d)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only show data until this date (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "List analysis runs instead of observations")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if listRuns {
		runs, err := db.ListRuns()
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No analysis runs found")
			return nil
		}

		fmt.Println("\nAnalysis Runs:")
		fmt.Println("------------------------------------------------------------------------------")
		fmt.Printf("%-36s  %-16s  %8s  %9s  %8s  %s\n", "ID", "Created", "Rows", "ADF", "p-value", "Published")
		fmt.Println("------------------------------------------------------------------------------")
		for _, r := range runs {
			published := "no"
			if r.Published {
				published = "yes"
			}
			fmt.Printf("%-36s  %-16s  %8d  %9s  %8s  %s\n",
				r.ID, humanize.Time(r.CreatedAt), r.Rows, formatStat(r.ADFStat), formatStat(r.PValue), published)
		}
		return nil
	}

	var since, until time.Time
	if listSince != "" {
		if since, err = parseDate(listSince); err != nil {
			return fmt.Errorf("parsing --since date: %w", err)
		}
	}
	if listUntil != "" {
		if until, err = parseDate(listUntil); err != nil {
			return fmt.Errorf("parsing --until date: %w", err)
		}
	}

	obs, err := db.ListObservations(since, until)
	if err != nil {
		return fmt.Errorf("listing observations: %w", err)
	}
	if len(obs) == 0 {
		fmt.Println("No observations found")
		return nil
	}

	daily := dataset.FromObservations(obs).ResampleDaily()

	fmt.Println("\nDaily Mean Rides:")
	fmt.Println("----------------------------------------")
	fmt.Printf("%-12s  %10s\n", "Date", "Mean")
	fmt.Println("----------------------------------------")
	for _, p := range daily {
		fmt.Printf("%-12s  %10s\n", p.Time.Format("2006-01-02"), formatStat(p.Value))
	}
	fmt.Println("----------------------------------------")
	fmt.Printf("%d days (%s observations)\n", len(daily), humanize.Comma(int64(len(obs))))

	return nil
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d")
func parseDate(dateStr string) (time.Time, error) {
	// Try absolute date format first
	t, err := time.Parse("2006-01-02", dateStr)
	if err == nil {
		return t, nil
	}

	// Try relative format (e.g., "7d" for 7 days ago)
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		daysStr := dateStr[:len(dateStr)-1]
		var days int
		if _, err := fmt.Sscanf(daysStr, "%d", &days); err == nil {
			return time.Now().AddDate(0, 0, -days), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}
