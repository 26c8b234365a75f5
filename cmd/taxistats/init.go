package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/config"
	"github.com/jgoulah/taxistats/internal/report"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  `Writes a config file with every default spelled out, including the default event windows, so it can be edited.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if err := writeStarterConfig(path, initForce); err != nil {
		return err
	}
	fmt.Printf("✓ Config written to %s\n", path)
	return nil
}

// writeStarterConfig saves the default config, refusing to replace an
// existing file unless force is set
func writeStarterConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	for _, ev := range report.DefaultEvents() {
		cfg.Events = append(cfg.Events, config.EventConfig{
			Name:  ev.Name,
			Start: ev.Start.Format("2006-01-02"),
			End:   ev.End.Format("2006-01-02"),
		})
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
