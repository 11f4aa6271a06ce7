// Package storage defines the spreadsheet and file-storage collaborator
// consumed by the commit step, plus a Google Sheets/Drive implementation.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrTokenFileRequired is returned when no credential token file is configured
	ErrTokenFileRequired = errors.New("storage token file is required")
	// ErrUnauthorized is returned when the provider rejects the credentials
	ErrUnauthorized = errors.New("storage provider rejected credentials")
)

// Client is the storage collaborator. Implementations own their credentials
// and call-level timeouts.
type Client interface {
	// AppendRows adds rows to the end of an existing spreadsheet without
	// re-emitting headers.
	AppendRows(ctx context.Context, spreadsheetID string, rows [][]string) error

	// CreateArtifact creates a new CSV artifact and returns its ID.
	CreateArtifact(ctx context.Context, name string, data []byte) (string, error)

	// UploadFile stores raw bytes under the given folder and name.
	UploadFile(ctx context.Context, folderID, name string, data []byte) error

	// CheckAuth exercises the credentials without writing anything.
	CheckAuth(ctx context.Context) error
}

// Config holds spreadsheet and file-storage configuration.
type Config struct {
	// DriveFolderID is the audit/artifact folder; empty means the root folder
	DriveFolderID string `yaml:"driveFolderId"`
	// SpreadsheetID selects append mode when set; empty selects create mode
	SpreadsheetID string `yaml:"spreadsheetId"`
	// SheetName is the tab rows are appended to in append mode
	SheetName string `yaml:"sheetName" default:"Sheet1"`
	// SheetsBaseURL is the Sheets API endpoint; override for an emulator
	SheetsBaseURL string `yaml:"sheetsBaseURL" default:"https://sheets.googleapis.com"`
	// DriveBaseURL is the Drive API endpoint; override for an emulator
	DriveBaseURL string `yaml:"driveBaseURL" default:"https://www.googleapis.com"`
	// TokenFile holds the opaque bearer token, refreshed out-of-band
	TokenFile string `yaml:"tokenFile" default:"token.json"`
	// Timeout bounds each provider call
	TimeoutSeconds int `yaml:"timeoutSeconds" default:"60"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TokenFile == "" {
		return ErrTokenFileRequired
	}

	if c.SheetName == "" {
		c.SheetName = "Sheet1"
	}

	return nil
}

// AppendMode reports whether commits target a pre-existing spreadsheet.
func (c *Config) AppendMode() bool {
	return c.SpreadsheetID != ""
}
