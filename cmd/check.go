package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/service"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a manual check, bypassing the schedule",
	Long: `Logs the clock's view of the current instant, then runs one pipeline pass
whether or not a check slot is due.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
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

	status, err := app.ScheduleStatus(ctx, time.Now())
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"target_day":    status.TargetDay,
		"state":         status.State.String(),
		"slots_crossed": status.SlotsCrossed,
		"satisfied":     status.Satisfied,
		"next_target":   status.NextTarget.Format("2006-01-02"),
	}).Info("Schedule status before manual run")

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
	}).Info("Manual check complete")

	return nil
}
