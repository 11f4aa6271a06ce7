// Package pipeline orchestrates one ingest run: fetch, dedup, transform,
// commit, ledger update.
package pipeline

import (
	"errors"
	"fmt"
)

const (
	defaultAuditName  = `New Leads - Daily TMP {{ .Timestamp | date "2006-01-02_15-04-05" }}.csv`
	defaultOutputName = `Lead_Data_{{ .Timestamp | date "2006-01-02_15-04" }}.csv`
)

var (
	// ErrInvalidMaxRows is returned when the row cap is not positive
	ErrInvalidMaxRows = errors.New("maxRowsToProcess must be positive")
	// ErrCommit marks a downstream append/upload failure; the message stays
	// un-ledgered and is retried on the next eligible slot
	ErrCommit = errors.New("commit to storage failed")
)

// Config holds pipeline tuning and artifact naming.
type Config struct {
	// MaxRowsToProcess caps rows per attachment; excess rows are truncated
	MaxRowsToProcess int `yaml:"maxRowsToProcess" default:"5000"`
	// AuditName is the template for the raw-attachment audit copy
	AuditName string `yaml:"auditName"`
	// OutputName is the template for create-mode artifacts
	OutputName string `yaml:"outputName"`
}

// Validate checks if the pipeline configuration is valid.
func (c *Config) Validate() error {
	if c.MaxRowsToProcess <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxRows, c.MaxRowsToProcess)
	}

	if c.AuditName == "" {
		c.AuditName = defaultAuditName
	}

	if c.OutputName == "" {
		c.OutputName = defaultOutputName
	}

	return nil
}
