// Package ledger provides the durable record of committed messages and the
// single-instance lock guarding it.
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressRequired is returned when the Redis address is missing
	ErrAddressRequired = errors.New("redis address is required")
)

// Config holds the ledger's Redis configuration.
type Config struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix" default:"leadsync"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}

	if c.Prefix == "" {
		c.Prefix = "leadsync"
	}

	return nil
}

// PrefixKey adds the configured prefix to a Redis key.
func (c *Config) PrefixKey(key string) string {
	if c.Prefix == "" {
		return key
	}

	return fmt.Sprintf("%s:%s", c.Prefix, key)
}
