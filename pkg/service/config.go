// Package service wires the clock, ledger, mailbox, and pipeline into the
// long-running watcher process.
package service

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/growatorchard/leadsync/pkg/ledger"
	"github.com/growatorchard/leadsync/pkg/mail"
	"github.com/growatorchard/leadsync/pkg/pipeline"
	"github.com/growatorchard/leadsync/pkg/schedule"
	"github.com/growatorchard/leadsync/pkg/storage"
)

// Config represents the complete watcher configuration.
type Config struct {
	// Core settings
	Logging     string `yaml:"logging" default:"info"`
	MetricsAddr string `yaml:"metricsAddr" default:":9090"`

	// Dependencies
	Redis   ledger.Config  `yaml:"redis"`
	Mail    mail.Config    `yaml:"mail"`
	Storage storage.Config `yaml:"storage"`

	// Watcher specific
	Schedule schedule.Config `yaml:"schedule"`
	Pipeline pipeline.Config `yaml:"pipeline"`
}

// Validate validates the configuration and every dependency section.
func (c *Config) Validate() error {
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}

	if err := c.Mail.Validate(); err != nil {
		return fmt.Errorf("mail config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	return nil
}

// LoadFromFile reads a YAML configuration file, applying struct defaults
// before unmarshalling.
func LoadFromFile(file string) (*Config, error) {
	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}
