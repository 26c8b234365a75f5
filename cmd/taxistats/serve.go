package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jgoulah/taxistats/internal/report"
	"github.com/jgoulah/taxistats/internal/server"
)

var (
	serveAddr   string
	serveFromDB bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [csv]",
	Short: "Build the dashboard and serve it over HTTP",
	Long:  `Runs the analysis once and serves the dashboard at /, the JSON summary at /api/summary and a health check at /healthz.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8501)")
	serveCmd.Flags().BoolVar(&serveFromDB, "from-db", false, "Analyze observations stored in the database instead of a CSV")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	frame, source, err := loadFrame(cfg, args, serveFromDB)
	if err != nil {
		return err
	}

	opts, err := reportOptions(cfg, source)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := report.Build(ctx, frame, opts)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	srv, err := server.New(rep, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	addr := cfg.GetServerAddr()
	if serveAddr != "" {
		addr = serveAddr
	}
	fmt.Printf("Serving dashboard on %s (Ctrl-C to stop)\n", addr)

	if err := srv.Start(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
