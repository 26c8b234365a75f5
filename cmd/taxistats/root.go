package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/config"
	"github.com/jgoulah/taxistats/internal/database"
	"github.com/jgoulah/taxistats/internal/dataset"
	"github.com/jgoulah/taxistats/internal/logger"
	"github.com/jgoulah/taxistats/internal/report"
)

var (
	cfgFile string
	dbPath  string
	verbose bool

	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "taxistats",
	Short: "Exploratory time-series analysis of NYC taxi ride counts",
	Long: `taxistats loads a timestamp/value CSV of NYC taxi ride counts and builds a dashboard:
dataset info, event windows, calendar patterns, seasonal decomposition, a stationarity
test and autocorrelation plots. Observations and analysis runs are kept in a local SQLite database.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogger,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./data.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// initLogger configures the shared logger from config and flags
func initLogger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.GetLogLevel()
	if verbose {
		level = "debug"
	}

	l, err := logger.New(os.Stderr, level, cfg.GetLogFormat())
	if err != nil {
		return err
	}
	log = l
	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "data.db"
}

// loadConfig loads and validates the configuration file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// loadFrame reads the dataset from the CSV argument, the configured CSV, or
// the database when fromDB is set. It returns the frame and its source label.
func loadFrame(cfg *config.Config, args []string, fromDB bool) (*dataset.Frame, string, error) {
	if fromDB {
		db, err := openDB()
		if err != nil {
			return nil, "", fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		obs, err := db.ListObservations(time.Time{}, time.Time{})
		if err != nil {
			return nil, "", fmt.Errorf("listing observations: %w", err)
		}
		if len(obs) == 0 {
			return nil, "", fmt.Errorf("no observations in %s; run 'taxistats import' first", getDBPath())
		}
		return dataset.FromObservations(obs), "db", nil
	}

	path := cfg.GetDataPath()
	if len(args) > 0 {
		path = args[0]
	}
	frame, err := dataset.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading %s: %w", path, err)
	}
	return frame, path, nil
}

// reportOptions maps config onto report options
func reportOptions(cfg *config.Config, source string) (report.Options, error) {
	opts := report.DefaultOptions()
	opts.Source = source
	opts.Logger = &log

	if cfg.Report.Title != "" {
		opts.Title = cfg.Report.Title
	}
	opts.Headers = cfg.Report.Headers
	if cfg.Report.Lags > 0 {
		opts.Lags = cfg.Report.Lags
	}
	if cfg.Report.Period > 0 {
		opts.Period = cfg.Report.Period
	}
	if cfg.Report.Alpha > 0 {
		opts.Alpha = cfg.Report.Alpha
	}
	if cfg.Report.PreviewRows > 0 {
		opts.PreviewRows = cfg.Report.PreviewRows
	}
	if cfg.Report.SummaryDays > 0 {
		opts.SummaryDays = cfg.Report.SummaryDays
	}

	if len(cfg.Events) > 0 {
		opts.Events = make([]report.Event, 0, len(cfg.Events))
		for _, ev := range cfg.Events {
			start, end, err := ev.Window()
			if err != nil {
				return opts, fmt.Errorf("event %s: %w", ev.Name, err)
			}
			opts.Events = append(opts.Events, report.Event{Name: ev.Name, Start: start, End: end})
		}
	}

	return opts, nil
}
