package config

import (
	"errors"
	"fmt"
)

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if c.Version == "" {
		c.Version = VersionUnknown
	}

	switch c.Version {
	case VersionLatest:
		// Supported version
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigVer, c.Version)
	}

	errz := []error{}

	if err := c.Logging.Validate(); err != nil {
		errz = append(errz, fmt.Errorf("logging: %w", err))
	}

	if c.Commit.MaxFlushPasses < 1 {
		errz = append(errz, fmt.Errorf("%w: commit.max_flush_passes must be at least 1, got %d",
			ErrInvalidValue, c.Commit.MaxFlushPasses))
	}
	if c.Commit.Concurrency < 1 {
		errz = append(errz, fmt.Errorf("%w: commit.concurrency must be at least 1, got %d",
			ErrInvalidValue, c.Commit.Concurrency))
	}

	if err := c.Store.Validate(); err != nil {
		errz = append(errz, fmt.Errorf("store: %w", err))
	}

	return errors.Join(errz...)
}
