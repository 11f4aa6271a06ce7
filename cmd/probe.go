package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/service"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var probeMinutes int

//nolint:gochecknoglobals // Cobra commands are typically global
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report whether a check slot fires within the next N minutes",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeMinutes, "in", 60, "look-ahead horizon in minutes")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	app := service.NewApplication(config, logger)
	if err := app.Setup(context.Background()); err != nil {
		return err
	}

	defer func() {
		if err := app.Stop(); err != nil {
			logger.WithError(err).Warn("Shutdown reported errors")
		}
	}()

	now := time.Now()
	horizon := time.Duration(probeMinutes) * time.Minute

	if instant, ok := app.NextFire(now, horizon); ok {
		fmt.Printf("Next slot fires at %s (in %s)\n", instant.Format(time.RFC3339), time.Until(instant).Round(time.Second))

		return nil
	}

	fmt.Printf("No slot fires within the next %d minutes\n", probeMinutes)

	return nil
}
