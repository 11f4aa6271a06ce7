package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/service"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run the ingest pipeline a single time and exit",
	Long: `Runs one full pipeline pass regardless of the schedule. The ledger still
applies: messages committed on previous runs are skipped.`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	app := service.NewApplication(config, logger)
	if err := app.Setup(ctx); err != nil {
		return err
	}

	defer func() {
		if err := app.Stop(); err != nil {
			logger.WithError(err).Warn("Shutdown reported errors")
		}
	}()

	res, err := app.RunOnce(ctx)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"matched":   res.Matched,
		"committed": res.Committed,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
		"rows":      res.Rows,
	}).Info("Single run complete")

	return nil
}
