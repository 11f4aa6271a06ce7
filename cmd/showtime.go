package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/service"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var showtimeCmd = &cobra.Command{
	Use:   "showtime",
	Short: "Print the schedule's view of the current instant",
	RunE:  runShowtime,
}

func init() {
	rootCmd.AddCommand(showtimeCmd)
}

func runShowtime(cmd *cobra.Command, _ []string) error {
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

	fmt.Printf("Now:            %s\n", status.Now.Format(time.RFC3339))
	fmt.Printf("Target day:     %v\n", status.TargetDay)
	fmt.Printf("Day state:      %s\n", status.State)
	fmt.Printf("Slots crossed:  %d\n", status.SlotsCrossed)
	fmt.Printf("Satisfied:      %v\n", status.Satisfied)
	fmt.Printf("Next target:    %s\n", status.NextTarget.Format("2006-01-02"))

	return nil
}
