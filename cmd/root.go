// Package cmd contains the CLI commands for leadsync
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/growatorchard/leadsync/pkg/service"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile string
	logger  *logrus.Logger
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "leadsync",
	Short: "Watch a mailbox for bi-weekly lead reports and commit them downstream",
	Long: `leadsync watches a mailbox for bi-weekly CSV lead reports, normalizes
each attachment, and commits the rows to a spreadsheet or file store exactly
once, with a Redis-backed ledger guarding against duplicates.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, fatal, panic); overrides the config file")

	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "./config.yaml"
	}
}

// loadConfig reads the configuration file and applies the logger settings,
// letting the --log-level flag override the file.
func loadConfig() (*service.Config, error) {
	config, err := service.LoadFromFile(cfgFile)
	if err != nil {
		return nil, err
	}

	levelName := config.Logging

	if flagLevel, err := rootCmd.PersistentFlags().GetString("log-level"); err == nil && flagLevel != "" {
		levelName = flagLevel
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, defaulting to info")

		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	return config, nil
}
