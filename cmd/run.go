package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/service"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var runAtFlag string

//nolint:gochecknoglobals // Cobra commands are typically global
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the watcher service",
	Long: `The watcher evaluates the bi-weekly schedule continuously and runs the
ingest pipeline when a check slot is due.`,
	RunE: runWatcher,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runAtFlag, "at", "", "single check time (HH:MM), replacing the configured window")
}

func runWatcher(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	// A single explicit time collapses the two-slot window to one attempt.
	if runAtFlag != "" {
		config.Schedule.CheckTimes = []string{runAtFlag}
	}

	logger.Info("Configuration loaded")

	app := service.NewApplication(config, logger)
	if err := app.Start(context.Background()); err != nil {
		return err
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	return app.Stop()
}
