package mail

import (
	"errors"
)

// SenderAny relaxes the sender filter to "any sender with matching subject".
const SenderAny = "any"

var (
	// ErrSubjectFilterRequired is returned when no subject filter is configured
	ErrSubjectFilterRequired = errors.New("mail subject filter is required")
	// ErrTokenFileRequired is returned when no credential token file is configured
	ErrTokenFileRequired = errors.New("mail token file is required")
)

// Config holds mailbox search configuration.
type Config struct {
	// SubjectFilter is matched exactly against the subject line
	SubjectFilter string `yaml:"subjectFilter"`
	// SenderFilter is a sender address, or the literal "any" to relax
	// filtering to subject-only matching
	SenderFilter string `yaml:"senderFilter" default:"any"`
	// Label is the mailbox label searched
	Label string `yaml:"label" default:"INBOX"`
	// BaseURL is the Gmail API endpoint; override to point at an emulator
	BaseURL string `yaml:"baseURL" default:"https://gmail.googleapis.com"`
	// TokenFile holds the opaque bearer token, refreshed out-of-band
	TokenFile string `yaml:"tokenFile" default:"token.json"`
	// Timeout bounds each provider call
	TimeoutSeconds int `yaml:"timeoutSeconds" default:"30"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SubjectFilter == "" {
		return ErrSubjectFilterRequired
	}

	if c.TokenFile == "" {
		return ErrTokenFileRequired
	}

	if c.Label == "" {
		c.Label = "INBOX"
	}

	return nil
}

// Query builds the search query from the configured filters.
func (c *Config) Query() Query {
	from := c.SenderFilter
	if from == SenderAny {
		from = ""
	}

	return Query{
		From:          from,
		Subject:       c.SubjectFilter,
		Label:         c.Label,
		HasAttachment: true,
	}
}
