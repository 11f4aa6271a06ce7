package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/mail"
	"github.com/growatorchard/leadsync/pkg/storage"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Verify mail and storage credentials",
	Long:  `Exercises the configured credentials against both providers without processing anything.`,
	RunE:  runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	mailbox, err := mail.NewGmailClient(logger, &config.Mail)
	if err != nil {
		return err
	}

	if err := mailbox.CheckAuth(ctx); err != nil {
		return err
	}

	logger.Info("Mail credentials OK")

	store, err := storage.NewGoogleClient(logger, &config.Storage)
	if err != nil {
		return err
	}

	if err := store.CheckAuth(ctx); err != nil {
		return err
	}

	logger.Info("Storage credentials OK")

	return nil
}
